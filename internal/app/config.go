package app

import (
	"errors"
	"fmt"
)

// Commands the application understands.
const (
	CommandExport = "export"
	CommandImport = "import"
)

// S3Settings carries the credentials for an s3:// destination. They come from
// the environment, never from flags.
type S3Settings struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command     string // export or import
	ConfigPath  string // hcl file or directory
	DatabaseURL string
	Destination string // local directory, or s3://bucket

	Concurrency int
	NoUpdate    bool
	Progress    string // console, log or none
	LogFormat   string
	LogLevel    string

	S3 S3Settings
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandExport, CommandImport:
	default:
		return nil, fmt.Errorf("unknown command %q: must be %q or %q", cfg.Command, CommandExport, CommandImport)
	}
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DatabaseURL is a required configuration field and cannot be empty")
	}
	if cfg.Destination == "" {
		return nil, errors.New("Destination is a required configuration field and cannot be empty")
	}
	if cfg.Concurrency < 0 {
		return nil, errors.New("Concurrency cannot be negative")
	}
	if cfg.Progress == "" {
		cfg.Progress = "console"
	}
	switch cfg.Progress {
	case "console", "log", "none":
	default:
		return nil, fmt.Errorf("unknown progress mode %q: must be 'console', 'log' or 'none'", cfg.Progress)
	}

	return &cfg, nil
}
