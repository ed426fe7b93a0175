package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults
const (
	DefaultLogLevel     = "warn"
	DefaultMissingToken = "NA"
	DefaultLockTimeout  = 30 * time.Second
	DefaultMaxResults   = 20
)

// ServeSettings configuration for the annotation explorer
type ServeSettings struct {
	Table      string `mapstructure:"table"`
	MaxResults int    `mapstructure:"max_results"`
}

// Settings application settings
type Settings struct {
	Fasta        string        `mapstructure:"fasta"`
	ControlFile  string        `mapstructure:"control_file"`
	OutFile      string        `mapstructure:"out_file"`
	SprotMap     string        `mapstructure:"sprot_map"`
	SummaryFile  string        `mapstructure:"summary_file"`
	LogLevel     string        `mapstructure:"log_level"`
	MissingToken string        `mapstructure:"missing_token"`
	LockTimeout  time.Duration `mapstructure:"lock_timeout"`
	Serve        ServeSettings `mapstructure:"serve"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("missing_token", DefaultMissingToken)
	v.SetDefault("lock_timeout", DefaultLockTimeout)
	v.SetDefault("serve.max_results", DefaultMaxResults)

	v.SetEnvPrefix("PANDANNOTATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("fasta", "PANDANNOTATE_FASTA")
	_ = v.BindEnv("control_file", "PANDANNOTATE_CONTROL_FILE")
	_ = v.BindEnv("out_file", "PANDANNOTATE_OUT_FILE")
	_ = v.BindEnv("sprot_map", "PANDANNOTATE_SPROT_MAP")
	_ = v.BindEnv("summary_file", "PANDANNOTATE_SUMMARY_FILE")
	// PANDANNOTATE_LOGLEVEL is the older spelling and still honored
	_ = v.BindEnv("log_level", "PANDANNOTATE_LOG_LEVEL", "PANDANNOTATE_LOGLEVEL")
	_ = v.BindEnv("missing_token", "PANDANNOTATE_MISSING_TOKEN")
	_ = v.BindEnv("lock_timeout", "PANDANNOTATE_LOCK_TIMEOUT")
	_ = v.BindEnv("serve.table", "PANDANNOTATE_SERVE_TABLE")
	_ = v.BindEnv("serve.max_results", "PANDANNOTATE_SERVE_MAX_RESULTS")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("fasta", flags.Lookup("fasta"))
		_ = v.BindPFlag("control_file", flags.Lookup("control-file"))
		_ = v.BindPFlag("out_file", flags.Lookup("outtable"))
		_ = v.BindPFlag("sprot_map", flags.Lookup("sprotmap"))
		_ = v.BindPFlag("summary_file", flags.Lookup("summary"))
		_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
		_ = v.BindPFlag("missing_token", flags.Lookup("na-rep"))
		_ = v.BindPFlag("lock_timeout", flags.Lookup("lock-timeout"))
		_ = v.BindPFlag("serve.table", flags.Lookup("table"))
		_ = v.BindPFlag("serve.max_results", flags.Lookup("max-results"))
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Fasta = expandHomeDir(strings.TrimSpace(settings.Fasta))
	settings.ControlFile = expandHomeDir(strings.TrimSpace(settings.ControlFile))
	settings.OutFile = expandHomeDir(strings.TrimSpace(settings.OutFile))
	settings.SprotMap = expandHomeDir(strings.TrimSpace(settings.SprotMap))
	settings.SummaryFile = expandHomeDir(strings.TrimSpace(settings.SummaryFile))
	settings.Serve.Table = expandHomeDir(strings.TrimSpace(settings.Serve.Table))
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))

	return &settings, nil
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ValidateSettings checks that a build run has everything it needs.
func ValidateSettings(s *Settings) error {
	if s.Fasta == "" {
		return errors.New("fasta is required")
	}
	if s.ControlFile == "" {
		return errors.New("control-file is required")
	}
	if s.OutFile == "" {
		return errors.New("outtable is required")
	}
	if s.OutFile == s.Fasta || s.OutFile == s.ControlFile {
		return errors.New("outtable must not overwrite an input file")
	}
	if s.SummaryFile != "" && s.SummaryFile == s.OutFile {
		return errors.New("summary must not overwrite outtable")
	}
	if s.LockTimeout <= 0 {
		return errors.New("lock-timeout must be positive")
	}
	return validateCommon(s)
}

// ValidateServeSettings checks the settings of the annotation explorer.
func ValidateServeSettings(s *Settings) error {
	if s.Serve.Table == "" {
		return errors.New("table is required")
	}
	if s.Serve.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}
	return validateCommon(s)
}

func validateCommon(s *Settings) error {
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	if strings.ContainsAny(s.MissingToken, "\t\r\n") {
		return errors.New("na-rep must not contain tabs or line breaks")
	}
	return nil
}
