// Package config loads sessionshell settings from defaults, an optional YAML
// config file, .env files, SESSIONSHELL_* environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sessionshell/internal/logger"
	"sessionshell/internal/render"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "SESSIONSHELL"

// AppName names the per-user config directory.
const AppName = "sessionshell"

// Configuration keys.
const (
	KeyPrompt        = "prompt"
	KeyWelcome       = "welcome"
	KeyVerbose       = "verbose"
	KeyDev           = "dev"
	KeyNoColor       = "no_color"
	KeyLeadingColor  = "colors.leading"
	KeySideColor     = "colors.side"
	KeyErrorColor    = "colors.error"
	KeySymbols       = "symbols"
	KeyJournal       = "journal"
	KeyScratch       = "scratch"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	dotEnvFileName   = ".env"
	configFileName   = "config"
	configFileFormat = "yaml"
)

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"prompt":    KeyPrompt,
	"welcome":   KeyWelcome,
	"verbose":   KeyVerbose,
	"dev":       KeyDev,
	"no-color":  KeyNoColor,
	"journal":   KeyJournal,
	"scratch":   KeyScratch,
	"log-level": KeyLogLevel,
	"log-file":  KeyLogFile,
}

// Colors holds the three session colors by name.
type Colors struct {
	Leading string `mapstructure:"leading"`
	Side    string `mapstructure:"side"`
	Error   string `mapstructure:"error"`
}

// Config is the resolved sessionshell configuration.
type Config struct {
	Prompt   string            `mapstructure:"prompt"`
	Welcome  string            `mapstructure:"welcome"`
	Verbose  bool              `mapstructure:"verbose"`
	Dev      bool              `mapstructure:"dev"`
	NoColor  bool              `mapstructure:"no_color"`
	Colors   Colors            `mapstructure:"colors"`
	Symbols  map[string]string `mapstructure:"symbols"`
	Journal  string            `mapstructure:"journal"`
	Scratch  string            `mapstructure:"scratch"`
	LogLevel string            `mapstructure:"log_level"`
	LogFile  string            `mapstructure:"log_file"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-"`
}

// Loader collects configuration from all sources.
type Loader struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string
	// ConfigDir is searched for config.yaml and .env. Defaults to the user config dir.
	ConfigDir string
	// WorkDir is searched for .env. Defaults to the current directory.
	WorkDir string
	// Flags are bound over every other source. Only flags that were set win.
	Flags *pflag.FlagSet
}

// Load resolves the configuration with default search locations.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	return (&Loader{ConfigFile: configFile, Flags: flags}).Load()
}

// Load reads every source and returns the merged, validated configuration.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configDir := l.configDir()

	source, err := l.readConfigFile(v, configDir)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{configDir, l.workDir()} {
		if dir == "" {
			continue
		}
		if err := mergeDotEnv(v, filepath.Join(dir, dotEnvFileName)); err != nil {
			return nil, err
		}
	}

	if l.Flags != nil {
		for name, key := range flagKeys {
			if flag := l.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded", "source", source, "prompt", cfg.Prompt, "verbose", cfg.Verbose)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPrompt, ">")
	v.SetDefault(KeyWelcome, "Welcome")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyDev, false)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyLeadingColor, string(render.Green))
	v.SetDefault(KeySideColor, string(render.DarkGrey))
	v.SetDefault(KeyErrorColor, string(render.Red))
	v.SetDefault(KeySymbols, map[string]string{})
	v.SetDefault(KeyJournal, "")
	v.SetDefault(KeyScratch, "")
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
}

func (l *Loader) configDir() string {
	if l.ConfigDir != "" {
		return l.ConfigDir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName)
}

func (l *Loader) workDir() string {
	if l.WorkDir != "" {
		return l.WorkDir
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}

// readConfigFile reads the explicit config file, or config.yaml from the
// config dir when present. A missing default file is not an error.
func (l *Loader) readConfigFile(v *viper.Viper, configDir string) (string, error) {
	if l.ConfigFile != "" {
		v.SetConfigFile(l.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", l.ConfigFile, err)
		}
		return v.ConfigFileUsed(), nil
	}

	if configDir == "" {
		return "", nil
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileFormat)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file in %s: %w", configDir, err)
	}
	return v.ConfigFileUsed(), nil
}

// mergeDotEnv merges SESSIONSHELL_* entries of a .env file into the config
// layer. Entries for unknown keys are ignored. A missing file is not an error.
func mergeDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read .env file %s: %w", path, err)
	}
	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}

	values := map[string]any{}
	for _, key := range v.AllKeys() {
		if value, ok := envMap[EnvName(key)]; ok {
			setNested(values, key, value)
		}
	}
	if len(values) == 0 {
		return nil
	}

	logger.Debug("Merging .env file", "path", path, "entries", len(values))
	return v.MergeConfigMap(values)
}

func setNested(values map[string]any, key string, value string) {
	parts := strings.Split(key, ".")
	current := values
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// EnvName returns the environment variable read for a configuration key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks that every configured color resolves to a terminal color.
func (c *Config) Validate() error {
	checks := []struct {
		key   string
		value string
	}{
		{KeyLeadingColor, c.Colors.Leading},
		{KeySideColor, c.Colors.Side},
		{KeyErrorColor, c.Colors.Error},
	}
	for _, check := range checks {
		if !render.ColorTag(check.value).Valid() {
			return fmt.Errorf("invalid color %q for %s", check.value, check.key)
		}
	}
	for tag := range c.Symbols {
		if !render.ColorTag(tag).Valid() {
			return fmt.Errorf("invalid color %q in %s", tag, KeySymbols)
		}
	}
	return nil
}

// ColorTags returns the leading, side and error colors.
func (c *Config) ColorTags() (leading, side, errColor render.ColorTag) {
	return render.ColorTag(c.Colors.Leading), render.ColorTag(c.Colors.Side), render.ColorTag(c.Colors.Error)
}

// SymbolTable returns the default symbols with configured overrides applied.
func (c *Config) SymbolTable() map[render.ColorTag]string {
	symbols := render.DefaultSymbols()
	for tag, symbol := range c.Symbols {
		symbols[render.ColorTag(tag)] = symbol
	}
	return symbols
}

// RenderOptions turns the configuration into renderer options.
func (c *Config) RenderOptions() []render.Option {
	opts := []render.Option{
		render.WithVerbose(c.Verbose),
		render.WithDevMode(c.Dev),
		render.WithSymbols(c.SymbolTable()),
	}
	if c.NoColor {
		opts = append(opts, render.WithoutColor())
	}
	return opts
}
