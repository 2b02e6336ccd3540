package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	MaxOccurrences          int `yaml:"max_occurrences"`
	AcceptanceWindowMinutes int `yaml:"acceptance_window_minutes"`
	MaxWaitlistSize         int `yaml:"max_waitlist_size"`
	// IANA zone used to decide which waitlist dates are in the past
	Timezone string `yaml:"timezone"`
}

// AcceptanceWindow returns the waitlist offer window.
func (b BookingConfig) AcceptanceWindow() time.Duration {
	return time.Duration(b.AcceptanceWindowMinutes) * time.Minute
}

type JobsConfig struct {
	OfferExpiry     string `yaml:"offer_expiry"`
	PromotionSweep  string `yaml:"promotion_sweep"`
	WaitlistCleanup string `yaml:"waitlist_cleanup"`
}

type NotificationsConfig struct {
	// One of: log, ses, amqp. Multiple values may be comma separated.
	Channels string `yaml:"channels"`

	SES struct {
		Region          string `yaml:"region"`
		Sender          string `yaml:"sender"`
		AccessKeyID     string `yaml:"-"` // Loaded from environment
		SecretAccessKey string `yaml:"-"` // Loaded from environment
	} `yaml:"ses"`

	AMQP struct {
		URL      string `yaml:"-"` // Loaded from environment
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
}

// ChannelList returns the configured notification channels.
func (n NotificationsConfig) ChannelList() []string {
	var channels []string
	for _, raw := range strings.Split(n.Channels, ",") {
		channel := strings.ToLower(strings.TrimSpace(raw))
		if channel != "" {
			channels = append(channels, channel)
		}
	}
	return channels
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Booking BookingConfig `yaml:"booking"`

	Jobs JobsConfig `yaml:"jobs"`

	Notifications NotificationsConfig `yaml:"notifications"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.Notifications.SES.AccessKeyID = os.Getenv("AWS_SES_ACCESS_KEY_ID")
	cfg.Notifications.SES.SecretAccessKey = os.Getenv("AWS_SES_SECRET_ACCESS_KEY")
	cfg.Notifications.AMQP.URL = os.Getenv("AMQP_URL")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and fills defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Booking.MaxOccurrences == 0 {
		c.Booking.MaxOccurrences = 365
	}
	if c.Booking.AcceptanceWindowMinutes == 0 {
		c.Booking.AcceptanceWindowMinutes = 24 * 60
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Jobs.OfferExpiry == "" {
		c.Jobs.OfferExpiry = "*/5 * * * *"
	}
	if c.Jobs.PromotionSweep == "" {
		c.Jobs.PromotionSweep = "*/15 * * * *"
	}
	if c.Jobs.WaitlistCleanup == "" {
		c.Jobs.WaitlistCleanup = "0 3 * * *"
	}
	if c.Notifications.Channels == "" {
		c.Notifications.Channels = "log"
	}
	if c.Notifications.AMQP.Exchange == "" {
		c.Notifications.AMQP.Exchange = "fieldbook.events"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Booking.MaxOccurrences < 1 || c.Booking.MaxOccurrences > 365 {
		return fmt.Errorf("booking max_occurrences must be between 1 and 365")
	}
	if c.Booking.AcceptanceWindowMinutes < 0 {
		return fmt.Errorf("booking acceptance_window_minutes must be positive")
	}
	if c.Booking.MaxWaitlistSize < 0 {
		return fmt.Errorf("booking max_waitlist_size must be 0 or greater")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking timezone: %w", err)
	}

	jobs := map[string]string{
		"offer_expiry":     c.Jobs.OfferExpiry,
		"promotion_sweep":  c.Jobs.PromotionSweep,
		"waitlist_cleanup": c.Jobs.WaitlistCleanup,
	}
	for name, expr := range jobs {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("jobs %s: invalid cron expression %q: %w", name, expr, err)
		}
	}

	for _, channel := range c.Notifications.ChannelList() {
		switch channel {
		case "log":
		case "ses":
			if c.Notifications.SES.Region == "" || c.Notifications.SES.Sender == "" {
				return fmt.Errorf("ses notifications require region and sender")
			}
			if c.Notifications.SES.AccessKeyID == "" || c.Notifications.SES.SecretAccessKey == "" {
				return fmt.Errorf("ses notifications require AWS_SES_ACCESS_KEY_ID and AWS_SES_SECRET_ACCESS_KEY")
			}
		case "amqp":
			if c.Notifications.AMQP.URL == "" {
				return fmt.Errorf("amqp notifications require AMQP_URL")
			}
		default:
			return fmt.Errorf("unsupported notification channel: %s", channel)
		}
	}

	return nil
}
