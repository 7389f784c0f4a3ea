package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yml"

// AIProviderType represents the type of AI provider
type AIProviderType string

const (
	AIProviderTypeCLI AIProviderType = "cli" // CLI tool (codex, gemini, claude, vibe, ollama)
	AIProviderTypeAPI AIProviderType = "api" // OpenAI-compatible HTTP API
)

// AIProvider represents a unified AI provider configuration
// Providers are tried in order from first to last
type AIProvider struct {
	Type    AIProviderType `yaml:"type"`               // "cli" or "api"
	Name    string         `yaml:"name"`               // CLI name (codex, gemini, claude) or friendly name for API
	Model   string         `yaml:"model"`              // model to use (required)
	BaseURL string         `yaml:"base_url,omitempty"` // API base URL (required for type: api)
	APIKey  string         `yaml:"api_key,omitempty"`  // API key (required for type: api)
}

// CalendarSystem selects where external events come from.
type CalendarSystem string

const (
	CalendarGoogle CalendarSystem = "google" // Google Calendar API, needs a token
	CalendarICS    CalendarSystem = "ical"   // read-only ICS subscription URL
	CalendarManual CalendarSystem = "manual" // local appointments only
)

// CalendarConfig configures the external calendar connection and the grid.
type CalendarConfig struct {
	System    CalendarSystem `yaml:"system,omitempty"`
	ICSURL    string         `yaml:"ics_url,omitempty"`
	WeekStart string         `yaml:"week_start,omitempty"` // "monday" or "sunday"
}

// WeekStartDay maps the configured week start onto a weekday, defaulting
// to Monday.
func (c CalendarConfig) WeekStartDay() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// Service is one offering the business books appointments for.
type Service struct {
	Name            string  `yaml:"name"`
	DurationMinutes int     `yaml:"duration_minutes,omitempty"`
	Price           float64 `yaml:"price,omitempty"`
}

// Profile describes the business, filled in by the onboarding wizard.
type Profile struct {
	BusinessName  string    `yaml:"business_name,omitempty"`
	Sector        string    `yaml:"sector,omitempty"`
	Subcategory   string    `yaml:"subcategory,omitempty"`
	Services      []Service `yaml:"services,omitempty"`
	BufferMinutes int       `yaml:"buffer_minutes,omitempty"` // gap kept between appointments
	Tone          string    `yaml:"tone,omitempty"`           // professional, friendly, promotional
	Consent       bool      `yaml:"consent"`                  // may send automated messages to leads
}

// ChannelsConfig selects how automated messages go out.
type ChannelsConfig struct {
	Email    bool `yaml:"email"`
	WhatsApp bool `yaml:"whatsapp"`
	SMS      bool `yaml:"sms"`
}

// AutomationsConfig toggles the background reminder jobs.
type AutomationsConfig struct {
	Reminder24h    bool           `yaml:"reminder_24h"`
	Reminder2h     bool           `yaml:"reminder_2h"`
	NoShowRecovery bool           `yaml:"no_show_recovery"`
	AskReview      bool           `yaml:"ask_review"`
	Channels       ChannelsConfig `yaml:"channels,omitempty"`
}

// SMTPConfig configures outbound reminder email. The password lives in the
// credentials file, not here.
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	From     string `yaml:"from,omitempty"`
}

// NativeNotificationConfig configures native OS notifications
type NativeNotificationConfig struct {
	Enabled             bool `yaml:"enabled"`
	AppointmentReminder bool `yaml:"appointment_reminder"`
}

type Config struct {
	Theme              string `yaml:"theme"`
	OnboardingComplete bool   `yaml:"onboarding_complete"`

	Profile     Profile           `yaml:"profile,omitempty"`
	Calendar    CalendarConfig    `yaml:"calendar,omitempty"`
	Automations AutomationsConfig `yaml:"automations,omitempty"`
	SMTP        *SMTPConfig       `yaml:"smtp,omitempty"`

	// AI providers - tried in order from first to last
	// Each provider can be a CLI tool or an OpenAI-compatible API
	AIProviders []AIProvider `yaml:"ai_providers,omitempty"`

	Notifications NativeNotificationConfig `yaml:"notifications,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Theme: "default",
		Calendar: CalendarConfig{
			System:    CalendarManual,
			WeekStart: "monday",
		},
		Notifications: NativeNotificationConfig{
			Enabled:             true,
			AppointmentReminder: true,
		},
	}
}

func Load() (Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return DefaultConfig(), err
	}

	configPath := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	// Apply defaults for zero values
	if cfg.Theme == "" {
		cfg.Theme = "default"
	}
	if cfg.Calendar.System == "" {
		cfg.Calendar.System = CalendarManual
	}
	if cfg.Calendar.WeekStart == "" {
		cfg.Calendar.WeekStart = "monday"
	}

	return cfg, nil
}

func (c Config) Save() error {
	configDir, err := getConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func getConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "leadly"), nil
}

func GetConfigDir() (string, error) {
	return getConfigDir()
}
