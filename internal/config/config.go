package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName is used for the env prefix and the config directory name.
const AppName = "dryrun"

// SDKEnvVar names the variable pointing at the Android SDK.
const SDKEnvVar = "ANDROID_HOME"

// FileEnvVar names an explicit config file, replacing the XDG lookup.
const FileEnvVar = "DRYRUN_CONFIG"

// Config holds the application configuration.
// Values come from defaults, then an optional config file, then DRYRUN_* env vars.
type Config struct {
	// AndroidHome is the SDK location. Required.
	AndroidHome string

	// LogLevel controls the verbosity of diagnostics (debug, info, warn, error).
	// Default: "warn"
	LogLevel string

	// GitBinary is the version-control client. Default: "git"
	GitBinary string

	// GradleBinary is used when the project ships no gradle wrapper.
	// Default: "gradle"
	GradleBinary string

	// AdbBinary is the device bridge. Defaults to the SDK's platform-tools/adb
	// when it exists, otherwise "adb" from PATH.
	AdbBinary string

	// WorkDir is where working copies are cloned.
	// Default: <os temp dir>/dryrun
	WorkDir string

	// Cleanup removes the working copy after the run. Default: false
	Cleanup bool

	// Launch starts the app after a successful install. Default: true
	Launch bool
}

// Options controls where Load looks for configuration.
type Options struct {
	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// ConfigFile is an explicit config file. When empty, Load uses
	// $DRYRUN_CONFIG, then config.yaml in DefaultConfigDir, where a missing
	// file is not an error.
	ConfigFile string
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/dryrun, or ~/.config/dryrun.
func DefaultConfigDir(getenv func(string) string) (string, error) {
	if dir := getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Load builds a Config from defaults, an optional YAML file and the environment.
func Load(opts Options) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	v := viper.New()
	v.SetDefault("log_level", "warn")
	v.SetDefault("git_binary", "git")
	v.SetDefault("gradle_binary", "gradle")
	v.SetDefault("adb_binary", "")
	v.SetDefault("workdir", filepath.Join(os.TempDir(), AppName))
	v.SetDefault("cleanup", false)
	v.SetDefault("launch", true)

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = getenv(FileEnvVar)
	}
	if err := readConfigFile(v, configFile, getenv); err != nil {
		return nil, err
	}

	// Env values are looked up in-process and fed to viper as overrides so
	// tests can substitute the environment.
	for _, key := range []string{"log_level", "git_binary", "gradle_binary", "adb_binary", "workdir", "cleanup", "launch"} {
		if val := getenv(envName(key)); val != "" {
			v.Set(key, val)
		}
	}

	cfg := &Config{
		AndroidHome:  strings.TrimSpace(getenv(SDKEnvVar)),
		LogLevel:     v.GetString("log_level"),
		GitBinary:    v.GetString("git_binary"),
		GradleBinary: v.GetString("gradle_binary"),
		AdbBinary:    v.GetString("adb_binary"),
		WorkDir:      v.GetString("workdir"),
		Cleanup:      v.GetBool("cleanup"),
		Launch:       v.GetBool("launch"),
	}

	if cfg.AdbBinary == "" {
		cfg.AdbBinary = defaultAdb(cfg.AndroidHome)
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, explicit string, getenv func(string) string) error {
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", explicit, err)
		}
		return nil
	}

	dir, err := DefaultConfigDir(getenv)
	if err != nil {
		// No home directory: run on defaults.
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config in %s: %w", dir, err)
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(AppName + "_" + key)
}

func defaultAdb(androidHome string) string {
	if androidHome != "" {
		candidate := filepath.Join(androidHome, "platform-tools", "adb")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "adb"
}

// HasSDK reports whether the SDK location is set. It only consults the
// environment, so it can run before any config file is read.
func HasSDK(getenv func(string) string) bool {
	return strings.TrimSpace(getenv(SDKEnvVar)) != ""
}

// Validate performs basic validation on the configuration.
// The SDK location is checked separately through HasSDK, before Load, so the
// front end can print its dedicated warning.
func (c *Config) Validate() error {
	if c.GitBinary == "" {
		return fmt.Errorf("git_binary cannot be empty")
	}
	if c.GradleBinary == "" {
		return fmt.Errorf("gradle_binary cannot be empty")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("workdir cannot be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q (must be debug, info, warn or error)", c.LogLevel)
	}
	return nil
}
