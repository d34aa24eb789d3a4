// Package core contains the business logic for timelogbot: identifier
// normalization, report rendering, checkpoint evaluation, configuration,
// and the sync driver that orchestrates one run.
package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPageTitle is the wiki page title the sync looks for in every space.
const DefaultPageTitle = "TimeLog"

// RedmineConfig holds the issue tracker endpoint and the tracked projects.
type RedmineConfig struct {
	URL      string
	APIKey   string
	Projects []string
}

// ConfluenceConfig holds the wiki REST endpoint and credentials.
type ConfluenceConfig struct {
	APIURL   string
	User     string
	APIToken string
}

// EmailConfig holds the SMTP submission settings for checkpoint mails.
type EmailConfig struct {
	Sender   string
	Host     string
	Port     int
	User     string
	Password string
}

// Config is the full configuration bundle for one run, constructed once at
// startup and passed by parameter into every collaborator constructor.
type Config struct {
	Redmine    RedmineConfig
	Confluence ConfluenceConfig
	Email      EmailConfig
	Recipients []string
	Database   string
	PageTitle  string
}

// LoadConfig reads the configuration bundle at the given path using Viper.
// TOML and YAML files are accepted, selected by file extension.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("page_title", DefaultPageTitle)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{
		Redmine: RedmineConfig{
			URL:      v.GetString("redmine.url"),
			APIKey:   v.GetString("redmine.api_key"),
			Projects: v.GetStringSlice("redmine.projects"),
		},
		Confluence: ConfluenceConfig{
			APIURL:   v.GetString("confluence.api_url"),
			User:     v.GetString("confluence.user"),
			APIToken: v.GetString("confluence.api_token"),
		},
		Email: EmailConfig{
			Sender:   v.GetString("email.sender"),
			Host:     v.GetString("email.host"),
			Port:     v.GetInt("email.port"),
			User:     v.GetString("email.user"),
			Password: v.GetString("email.password"),
		},
		Recipients: v.GetStringSlice("recipients"),
		Database:   v.GetString("database"),
		PageTitle:  v.GetString("page_title"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing required values and returns
// an error listing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Redmine.URL == "" {
		errs = append(errs, "redmine.url must not be empty")
	}
	if c.Redmine.APIKey == "" {
		errs = append(errs, "redmine.api_key must not be empty")
	}
	if len(c.Redmine.Projects) == 0 {
		errs = append(errs, "redmine.projects must list at least one project")
	}
	if c.Confluence.APIURL == "" {
		errs = append(errs, "confluence.api_url must not be empty")
	}
	if c.Confluence.User == "" {
		errs = append(errs, "confluence.user must not be empty")
	}
	if c.Confluence.APIToken == "" {
		errs = append(errs, "confluence.api_token must not be empty")
	}
	if c.Email.Host == "" {
		errs = append(errs, "email.host must not be empty")
	}
	if c.Email.Port <= 0 {
		errs = append(errs, fmt.Sprintf("email.port must be positive, got %d", c.Email.Port))
	}
	if c.Email.Sender == "" {
		errs = append(errs, "email.sender must not be empty")
	}
	if len(c.Recipients) == 0 {
		errs = append(errs, "recipients must list at least one address")
	}
	if c.Database == "" {
		errs = append(errs, "database must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
