package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/seedvault/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	// A .env file supplies credentials in development. Absence is fine.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env file.")
	}

	if len(args) == 0 {
		printUsage(output)
		return nil, true, nil
	}
	command := args[0]
	if command == "-h" || command == "--help" || command == "help" {
		printUsage(output)
		return nil, true, nil
	}

	flagSet := flag.NewFlagSet("seedvault "+command, flag.ContinueOnError)
	flagSet.SetOutput(output)

	configFlag := flagSet.String("config", "", "Path to a model .hcl file or a directory of .hcl files.")
	cFlag := flagSet.String("c", "", "Path to a model .hcl file or a directory (shorthand).")
	dbFlag := flagSet.String("db", os.Getenv("SEEDVAULT_DATABASE_URL"), "Database connection URL. Defaults to $SEEDVAULT_DATABASE_URL.")
	destFlag := flagSet.String("dest", os.Getenv("SEEDVAULT_DESTINATION"), "Snapshot destination: a directory or s3://bucket. Defaults to $SEEDVAULT_DESTINATION.")
	concurrencyFlag := flagSet.Int("concurrency", 1, "Number of entity types processed at once. 1 runs serially.")
	noUpdateFlag := flagSet.Bool("no-update", false, "Skip exporting types whose data already exists in the destination.")
	progressFlag := flagSet.String("progress", "console", "Progress reporting. Options: 'console', 'log' or 'none'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" {
		printUsage(output)
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Command:     command,
		ConfigPath:  path,
		DatabaseURL: *dbFlag,
		Destination: *destFlag,
		Concurrency: *concurrencyFlag,
		NoUpdate:    *noUpdateFlag,
		Progress:    strings.ToLower(*progressFlag),
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		S3: app.S3Settings{
			Endpoint:  os.Getenv("SEEDVAULT_S3_ENDPOINT"),
			Region:    os.Getenv("SEEDVAULT_S3_REGION"),
			AccessKey: os.Getenv("SEEDVAULT_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SEEDVAULT_S3_SECRET_KEY"),
			UseSSL:    os.Getenv("SEEDVAULT_S3_USE_SSL") == "true",
		},
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}

func printUsage(output io.Writer) {
	fmt.Fprint(output, `
Seedvault - dependency-aware database snapshot export and import.

Usage:
  seedvault export [options] [CONFIG_PATH]
  seedvault import [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl model file or a directory containing .hcl files.

Options:
  -config, -c    Path to the model file or directory.
  -db            Database connection URL ($SEEDVAULT_DATABASE_URL).
  -dest          Snapshot destination: directory or s3://bucket ($SEEDVAULT_DESTINATION).
  -concurrency   Entity types processed at once. 1 runs serially.
  -no-update     Skip types whose data already exists in the destination.
  -progress      Progress reporting: 'console', 'log' or 'none'.
  -log-format    Log output format: 'text' or 'json'.
  -log-level     Logging level: 'debug', 'info', 'warn', 'error'.
`)
}
