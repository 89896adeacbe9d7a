package config

// Config represents the full worklog configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// User identity recorded on every work item
	UserID string `yaml:"user_id" mapstructure:"user_id"`

	// Timezone for bucketing sessions onto calendar days (IANA name).
	// Empty means the system local zone.
	Timezone string `yaml:"timezone" mapstructure:"timezone"`

	// Ledger database location
	DBPath string `yaml:"db_path" mapstructure:"db_path"`

	// Evidence sources
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`

	// Session summarization
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`

	// Project-specific settings (only in project config)
	Project ProjectConfig `yaml:"project" mapstructure:"project"`
}

// SourcesConfig configures the evidence sources
type SourcesConfig struct {
	Claude ClaudeConfig `yaml:"claude" mapstructure:"claude"`
	Gemini GeminiConfig `yaml:"gemini" mapstructure:"gemini"`
	Git    GitConfig    `yaml:"git" mapstructure:"git"`
	GitLab GitLabConfig `yaml:"gitlab" mapstructure:"gitlab"`
}

// ClaudeConfig configures Claude Code session ingestion
type ClaudeConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Root    string `yaml:"root" mapstructure:"root"`
}

// GeminiConfig configures Gemini session ingestion
type GeminiConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Root    string `yaml:"root" mapstructure:"root"`
}

// GitConfig configures local repository ingestion
type GitConfig struct {
	Enabled bool     `yaml:"enabled" mapstructure:"enabled"`
	Repos   []string `yaml:"repos" mapstructure:"repos"`
	Author  string   `yaml:"author" mapstructure:"author"`
}

// GitLabConfig configures GitLab API ingestion
type GitLabConfig struct {
	Enabled  bool     `yaml:"enabled" mapstructure:"enabled"`
	BaseURL  string   `yaml:"base_url" mapstructure:"base_url"`
	Token    string   `yaml:"token" mapstructure:"token"`
	Projects []string `yaml:"projects" mapstructure:"projects"`
	Author   string   `yaml:"author" mapstructure:"author"`
}

// EnrichConfig configures LLM outcome summarization
type EnrichConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ProjectConfig holds project-specific settings
type ProjectConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}
