package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PANDANNOTATE_FASTA",
		"PANDANNOTATE_CONTROL_FILE",
		"PANDANNOTATE_OUT_FILE",
		"PANDANNOTATE_LOG_LEVEL",
		"PANDANNOTATE_LOGLEVEL",
		"PANDANNOTATE_LOCK_TIMEOUT",
		"PANDANNOTATE_SERVE_MAX_RESULTS",
	} {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}

func validSettings() *Settings {
	return &Settings{
		Fasta:        "in.fa",
		ControlFile:  "control.tsv",
		OutFile:      "out.tsv",
		LogLevel:     "warn",
		MissingToken: "NA",
		LockTimeout:  time.Second,
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	clearEnv(t)

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.LogLevel != DefaultLogLevel {
		t.Errorf("Expected default log level %q, got %q", DefaultLogLevel, settings.LogLevel)
	}
	if settings.MissingToken != "NA" {
		t.Errorf("Expected default missing token 'NA', got %q", settings.MissingToken)
	}
	if settings.LockTimeout != 30*time.Second {
		t.Errorf("Expected default lock timeout 30s, got %v", settings.LockTimeout)
	}
	if settings.Serve.MaxResults != 20 {
		t.Errorf("Expected default max results 20, got %d", settings.Serve.MaxResults)
	}
	if settings.Fasta != "" {
		t.Errorf("Expected no default fasta, got %q", settings.Fasta)
	}
}

func TestLoadSettings_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PANDANNOTATE_FASTA", "/data/proteins.fa")
	t.Setenv("PANDANNOTATE_OUT_FILE", "/data/out.tsv")
	t.Setenv("PANDANNOTATE_LOCK_TIMEOUT", "45s")
	t.Setenv("PANDANNOTATE_SERVE_MAX_RESULTS", "5")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Fasta != "/data/proteins.fa" {
		t.Errorf("Expected fasta from env, got %q", settings.Fasta)
	}
	if settings.OutFile != "/data/out.tsv" {
		t.Errorf("Expected out file from env, got %q", settings.OutFile)
	}
	if settings.LockTimeout != 45*time.Second {
		t.Errorf("Expected lock timeout 45s, got %v", settings.LockTimeout)
	}
	if settings.Serve.MaxResults != 5 {
		t.Errorf("Expected max results 5, got %d", settings.Serve.MaxResults)
	}
}

func TestLoadSettings_LogLevelEnvNames(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{"current name", map[string]string{"PANDANNOTATE_LOG_LEVEL": "DEBUG"}, "debug"},
		{"legacy name", map[string]string{"PANDANNOTATE_LOGLEVEL": "info"}, "info"},
		{"current wins", map[string]string{"PANDANNOTATE_LOG_LEVEL": "error", "PANDANNOTATE_LOGLEVEL": "info"}, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			settings, err := LoadSettings()
			if err != nil {
				t.Fatalf("Failed to load settings: %v", err)
			}
			if settings.LogLevel != tt.expected {
				t.Errorf("Expected log level %q, got %q", tt.expected, settings.LogLevel)
			}
		})
	}
}

func TestLoadSettings_EnvFile(t *testing.T) {
	clearEnv(t)
	content := []byte("fasta=from-dotenv.fa\nmissing_token=-")
	tmpEnv := ".env"
	if err := os.WriteFile(tmpEnv, content, 0644); err != nil {
		t.Fatalf("Failed to create .env file: %v", err)
	}
	defer func() { _ = os.Remove(tmpEnv) }()

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Fasta != "from-dotenv.fa" {
		t.Errorf("Expected fasta from .env, got %q", settings.Fasta)
	}
	if settings.MissingToken != "-" {
		t.Errorf("Expected missing token '-', got %q", settings.MissingToken)
	}
}

func TestLoadSettings_InvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PANDANNOTATE_LOCK_TIMEOUT", "not-a-duration")

	_, err := LoadSettings()
	if err == nil {
		t.Fatal("Expected error for invalid lock timeout")
	}
}

func TestLoadSettingsWithFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PANDANNOTATE_FASTA", "env.fa")
	t.Setenv("PANDANNOTATE_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("fasta", "", "")
	flags.String("log-level", "", "")
	_ = flags.Set("fasta", "flag.fa")
	_ = flags.Set("log-level", "debug")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Fasta != "flag.fa" {
		t.Errorf("Expected CLI fasta 'flag.fa', got %q", settings.Fasta)
	}
	if settings.LogLevel != "debug" {
		t.Errorf("Expected CLI log level 'debug', got %q", settings.LogLevel)
	}
}

func TestLoadSettingsWithFlags_UnsetFlagKeepsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PANDANNOTATE_CONTROL_FILE", "env-control.tsv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("control-file", "", "")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if settings.ControlFile != "env-control.tsv" {
		t.Errorf("Expected env control file, got %q", settings.ControlFile)
	}
}

func TestLoadSettingsWithFlags_AllFlagTypes(t *testing.T) {
	clearEnv(t)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("fasta", "", "")
	flags.String("control-file", "", "")
	flags.String("outtable", "", "")
	flags.String("sprotmap", "", "")
	flags.String("summary", "", "")
	flags.String("na-rep", "", "")
	flags.Duration("lock-timeout", 0, "")
	flags.String("table", "", "")
	flags.Int("max-results", 0, "")

	_ = flags.Set("fasta", "a.fa")
	_ = flags.Set("control-file", "c.tsv")
	_ = flags.Set("outtable", "o.tsv")
	_ = flags.Set("sprotmap", "map.tsv")
	_ = flags.Set("summary", "s.json")
	_ = flags.Set("na-rep", "nan")
	_ = flags.Set("lock-timeout", "2m")
	_ = flags.Set("table", "t.tsv")
	_ = flags.Set("max-results", "7")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"fasta", settings.Fasta, "a.fa"},
		{"control_file", settings.ControlFile, "c.tsv"},
		{"out_file", settings.OutFile, "o.tsv"},
		{"sprot_map", settings.SprotMap, "map.tsv"},
		{"summary_file", settings.SummaryFile, "s.json"},
		{"missing_token", settings.MissingToken, "nan"},
		{"lock_timeout", settings.LockTimeout, 2 * time.Minute},
		{"serve.table", settings.Serve.Table, "t.tsv"},
		{"serve.max_results", settings.Serve.MaxResults, 7},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadSettings_ExpandsHome(t *testing.T) {
	clearEnv(t)
	t.Setenv("PANDANNOTATE_FASTA", "~/seqs.fa")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	home, _ := os.UserHomeDir()
	if settings.Fasta != filepath.Join(home, "seqs.fa") {
		t.Errorf("Expected expanded fasta path, got %q", settings.Fasta)
	}
}

// --- ValidateSettings Tests ---

func TestValidateSettings_Valid(t *testing.T) {
	if err := ValidateSettings(validSettings()); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"missing fasta", func(s *Settings) { s.Fasta = "" }, "fasta is required"},
		{"missing control", func(s *Settings) { s.ControlFile = "" }, "control-file is required"},
		{"missing output", func(s *Settings) { s.OutFile = "" }, "outtable is required"},
		{"output overwrites fasta", func(s *Settings) { s.OutFile = s.Fasta }, "must not overwrite"},
		{"output overwrites control", func(s *Settings) { s.OutFile = s.ControlFile }, "must not overwrite"},
		{"summary overwrites output", func(s *Settings) { s.SummaryFile = s.OutFile }, "summary must not overwrite"},
		{"zero lock timeout", func(s *Settings) { s.LockTimeout = 0 }, "lock-timeout must be positive"},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, "invalid log-level"},
		{"tab in missing token", func(s *Settings) { s.MissingToken = "N\tA" }, "na-rep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateServeSettings(t *testing.T) {
	tests := []struct {
		name    string
		serve   ServeSettings
		wantErr string
	}{
		{"valid", ServeSettings{Table: "t.tsv", MaxResults: 10}, ""},
		{"missing table", ServeSettings{MaxResults: 10}, "table is required"},
		{"zero max results", ServeSettings{Table: "t.tsv"}, "max-results must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{LogLevel: "info", Serve: tt.serve}
			err := ValidateServeSettings(s)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestExpandHomeDir(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde prefix", "~/test", filepath.Join(home, "test")},
		{"tilde only", "~", home},
		{"no tilde", "/absolute/path", "/absolute/path"},
		{"tilde in middle", "/path/~/test", "/path/~/test"},
		{"stdin", "-", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandHomeDir(tt.input)
			if result != tt.expected {
				t.Errorf("expandHomeDir(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
