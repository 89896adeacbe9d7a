package config

import "os"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	userID := os.Getenv("USER")
	if userID == "" {
		userID = "default"
	}
	return &Config{
		Version: "1",
		UserID:  userID,
		DBPath:  "~/.worklog/worklog.db",
		Sources: SourcesConfig{
			Claude: ClaudeConfig{Enabled: true},
			Gemini: GeminiConfig{Enabled: true},
			Git:    GitConfig{Enabled: true},
			GitLab: GitLabConfig{Enabled: false},
		},
		Enrich: EnrichConfig{Enabled: false},
	}
}

// WriteDefault writes the default global configuration to a file
func WriteDefault(path string) error {
	content := `# Worklog Global Configuration
version: "1"

# Identity recorded on every work item (defaults to $USER)
# user_id: me

# Timezone for bucketing sessions onto days (defaults to system local)
# timezone: Asia/Taipei

# Ledger database
db_path: ~/.worklog/worklog.db

# Evidence sources
sources:
  claude:
    enabled: true
    # root: ~/.claude/projects
  gemini:
    enabled: true
    # root: ~/.gemini/tmp
  git:
    enabled: true
    repos: []
    # author: Your Name
  gitlab:
    enabled: false
    # base_url: https://gitlab.example.com
    # token: $GITLAB_TOKEN
    # projects: ["123"]

# LLM outcome summarization (falls back to rule-based outcomes)
enrich:
  enabled: false
  # base_url: https://api.openai.com/v1
  # api_key: $OPENAI_API_KEY
  # model: gpt-4o-mini
`
	return os.WriteFile(path, []byte(content), 0644)
}
