package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Sources  SourcesConfig  `yaml:"sources" envconfig:"SOURCES"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
}

// AnalysisConfig controls the statistical analysis parameters.
// All values are passed explicitly into the reconciler and estimator so two
// runs with different countries or thresholds never interfere.
type AnalysisConfig struct {
	Country              string  `yaml:"country" envconfig:"COUNTRY" validate:"required"`
	VaccinationThreshold float64 `yaml:"vaccination_threshold" envconfig:"VACCINATION_THRESHOLD" validate:"gte=0,lte=1"`
	StartDate            string  `yaml:"start_date" envconfig:"START_DATE" validate:"required,datetime=2006-01-02"`
	EndDate              string  `yaml:"end_date" envconfig:"END_DATE" validate:"required,datetime=2006-01-02"`
	Period               string  `yaml:"period" envconfig:"PERIOD" validate:"oneof=weekly monthly"`
	WeekEndsOn           string  `yaml:"week_ends_on" envconfig:"WEEK_ENDS_ON" validate:"oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
}

// SourcesConfig contains the raw data source endpoints
type SourcesConfig struct {
	OWIDURL      string        `yaml:"owid_url" envconfig:"OWID_URL" validate:"required,url"`
	WHOURL       string        `yaml:"who_url" envconfig:"WHO_URL" validate:"required,url"`
	NYTURL       string        `yaml:"nyt_url" envconfig:"NYT_URL" validate:"required,url"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	WebDir       string `yaml:"web_dir" envconfig:"WEB_DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains the dashboard HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// Default returns the baseline configuration. Environment variables and the
// optional YAML file overlay these values.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			Country:              "United States",
			VaccinationThreshold: 0.5,
			StartDate:            "2020-01-01",
			EndDate:              "2022-12-31",
			Period:               "weekly",
			WeekEndsOn:           "Sunday",
		},
		Sources: SourcesConfig{
			OWIDURL:      "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/owid-covid-data.csv",
			WHOURL:       "https://srhdpeuwpubsa.blob.core.windows.net/whdh/COVID/WHO-COVID-19-global-data.csv",
			NYTURL:       "https://raw.githubusercontent.com/nytimes/covid-19-data/master/us.csv",
			FetchTimeout: 30 * time.Second,
		},
		Paths: PathsConfig{
			DataDir:      "data",
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
			ReportsDir:   "results",
			WebDir:       "web",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/covidcli.log",
		},
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

// Load loads configuration from the optional YAML file and environment
// variables. Environment variables (prefix COVID) take precedence over the
// file, which takes precedence over defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process("COVID", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays configuration from a YAML file
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	start, end, err := c.Analysis.DateRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("analysis end date %s precedes start date %s",
			c.Analysis.EndDate, c.Analysis.StartDate)
	}
	return nil
}

// DateRange parses the configured analysis period boundaries
func (a AnalysisConfig) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", a.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", a.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", a.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", a.EndDate, err)
	}
	return start, end, nil
}

// WeekEnding returns the configured week-ending weekday
func (a AnalysisConfig) WeekEnding() time.Weekday {
	switch strings.ToLower(a.WeekEndsOn) {
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Sunday
	}
}
