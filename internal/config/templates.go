package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Insights Dashboard Configuration

# Active environment: "development" or "production".
# Overridden by --env or INSIGHTS_ENV.
environment = "development"

[store]
# Document store backend: "firestore", "sqlite" or "memory"
backend = "sqlite"
# Local SQLite database used by the sqlite backend
# sqlite_path = "~/.config/insights-dashboard/insights.db"
# Re-run the live query at this interval (0 disables polling)
poll_interval = "5s"
# Watch the database file for writes by other processes
watch_file = true

[feed]
# Collection holding insight documents
collection = "daily_insights"
# Number of newest insights to keep
limit = 20

[server]
addr = ":8080"
read_timeout = "10s"
shutdown_timeout = "5s"
heartbeat = "25s"

[ui]
locale = "he-IL"
timezone = "Asia/Jerusalem"
color_enabled = true

[logging]
level = "info"
file = true
max_size = 100
max_backups = 7
max_age = 30

[assistant]
chat_url = "https://chat.openai.com"

# Per-environment overrides. Keys mirror the sections above.
[environments.production.store]
backend = "firestore"
project_id = "investment-advisor-bot-2025"
# credentials_file = "/path/to/service-account.json"

[environments.production.logging]
level = "warn"
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
