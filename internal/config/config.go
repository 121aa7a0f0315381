package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string    `mapstructure:"env"`            // current application environment (local, dev, prod etc)
	TelegramAPIToken string    `mapstructure:"-"`              // Telegram API token loaded from environment
	AdminID          int64     `mapstructure:"admin_id"`       // Telegram user ID allowed to use the admin panel
	QuestionsPath    string    `mapstructure:"questions_path"` // directory with question JSON files
	Quiz             Quiz      `mapstructure:"quiz"`           // quiz engine settings section
	Countries        []Country `mapstructure:"countries"`      // available countries and their region files
	DB               DB        `mapstructure:"database"`       // database configuration section
}

// Quiz contains quiz engine settings.
type Quiz struct {
	QuestionTime   time.Duration `mapstructure:"question_time"`   // time limit per question
	MinQuestions   int           `mapstructure:"min_questions"`   // minimum questions required to start a session
	QuestionCounts []int         `mapstructure:"question_counts"` // selectable session lengths
	ReloadSchedule string        `mapstructure:"reload_schedule"` // cron spec for scheduled question reload, empty disables
}

// Country describes one country entry in the question catalogue.
type Country struct {
	Code    string   `mapstructure:"code"`    // short code used in callback data
	Name    string   `mapstructure:"name"`    // display name with flag
	Regions []Region `mapstructure:"regions"` // regions with their question files
}

// Region describes one region and the JSON file holding its questions.
type Region struct {
	Code string `mapstructure:"code"` // short code used in callback data
	Name string `mapstructure:"name"` // display name
	File string `mapstructure:"file"` // file name relative to questions_path/<country code>
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("questions_path", "assets/questions")
	v.SetDefault("quiz.question_time", "10s")
	v.SetDefault("quiz.min_questions", 10)
	v.SetDefault("quiz.question_counts", []int{10, 20, 30})
	v.SetDefault("quiz.reload_schedule", "")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("admin_id", "ADMIN_ID")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	return &cfg, nil
}

// CountryByCode returns the country entry with the given code.
func (c *Config) CountryByCode(code string) (*Country, bool) {
	for i := range c.Countries {
		if strings.EqualFold(c.Countries[i].Code, code) {
			return &c.Countries[i], true
		}
	}
	return nil, false
}

// RegionByCode returns the region entry with the given code.
func (c *Country) RegionByCode(code string) (*Region, bool) {
	for i := range c.Regions {
		if strings.EqualFold(c.Regions[i].Code, code) {
			return &c.Regions[i], true
		}
	}
	return nil, false
}
