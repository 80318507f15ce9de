// Package config provides configuration management for Speaking Eye.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/xvierd/speaking-eye/internal/domain"
)

const (
	appName    = "speaking-eye"
	envPrefix  = "SPEAKING_EYE"
	configType = "yaml"
)

// Config holds all configuration for Speaking Eye.
type Config struct {
	Apps          AppsConfig         `mapstructure:"-"`
	TimeLimits    TimeLimitsConfig   `mapstructure:"time_limits"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Watcher       WatcherConfig      `mapstructure:"watcher"`
	Theme         ThemeConfig        `mapstructure:"theme"`
	Debug         bool               `mapstructure:"debug"`
}

// AppsConfig holds the detailed and distracting application lists.
type AppsConfig struct {
	Detailed    []AppEntry
	Distracting []AppEntry
}

// TimeLimitsConfig holds reminder thresholds.
type TimeLimitsConfig struct {
	WorkTimeHours       int      `mapstructure:"work_time_hours"`
	BreaksIntervalHours int      `mapstructure:"breaks_interval_hours"`
	DistractingAppsMins int      `mapstructure:"distracting_apps_mins"`
	ReminderInterval    Duration `mapstructure:"reminder_interval"`
}

// WorkTimeLimit returns the daily work time after which overtime is reported.
func (c TimeLimitsConfig) WorkTimeLimit() time.Duration {
	return time.Duration(c.WorkTimeHours) * time.Hour
}

// BreaksInterval returns the work time allowed between breaks.
func (c TimeLimitsConfig) BreaksInterval() time.Duration {
	return time.Duration(c.BreaksIntervalHours) * time.Hour
}

// DistractingLimit returns the daily work time allowed per distracting app.
func (c TimeLimitsConfig) DistractingLimit() time.Duration {
	return time.Duration(c.DistractingAppsMins) * time.Minute
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	FileMask    string `mapstructure:"file_mask"`
	Index       bool   `mapstructure:"index"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WatcherConfig holds desktop watcher settings.
type WatcherConfig struct {
	Backend      string   `mapstructure:"backend"`
	PollInterval Duration `mapstructure:"poll_interval"`
}

// ThemeConfig holds colors used by reports and the dashboard.
type ThemeConfig struct {
	ColorWork        string `mapstructure:"color_work"`
	ColorOff         string `mapstructure:"color_off"`
	ColorDistracting string `mapstructure:"color_distracting"`
	ColorTitle       string `mapstructure:"color_title"`
	ColorHelp        string `mapstructure:"color_help"`
	GradientStart    string `mapstructure:"gradient_start"`
	GradientEnd      string `mapstructure:"gradient_end"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorWork:        "#7C6FE0",
		ColorOff:         "#4ECDC4",
		ColorDistracting: "#E06C75",
		ColorTitle:       "#6B7280",
		ColorHelp:        "#95A5A6",
		GradientStart:    "#7C6FE0",
		GradientEnd:      "#A78BFA",
	}
}

// Duration is a wrapper around time.Duration for YAML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Apps: AppsConfig{
			Detailed: []AppEntry{
				RegularEntry{Title: "Terminal", WmName: "Gnome-terminal|kitty|Alacritty|Tilix"},
				RegularEntry{Title: "Browser", WmName: "firefox|Google-chrome|Chromium"},
				RegularEntry{Title: "Code", WmName: "jetbrains|Code"},
			},
			Distracting: []AppEntry{NoneEntry{}},
		},
		TimeLimits: TimeLimitsConfig{
			WorkTimeHours:       9,
			BreaksIntervalHours: 3,
			DistractingAppsMins: 15,
			ReminderInterval:    Duration(15 * time.Minute),
		},
		Storage: StorageConfig{
			DataDir:  defaultDataDir(),
			FileMask: "{date}_speaking_eye_raw_data.tsv",
			Index:    true,
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
		Watcher: WatcherConfig{
			Backend:      "auto",
			PollInterval: Duration(time.Second),
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from the default config file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, creating it with
// defaults when it does not exist.
func LoadFrom(configPath string) (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := readApps(configPath, &cfg.Apps); err != nil {
		return nil, err
	}

	cfg.Storage.DataDir = expandHome(cfg.Storage.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg to configPath.
func SaveTo(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)

	v.Set("time_limits.work_time_hours", cfg.TimeLimits.WorkTimeHours)
	v.Set("time_limits.breaks_interval_hours", cfg.TimeLimits.BreaksIntervalHours)
	v.Set("time_limits.distracting_apps_mins", cfg.TimeLimits.DistractingAppsMins)
	v.Set("time_limits.reminder_interval", cfg.TimeLimits.ReminderInterval.String())
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("storage.file_mask", cfg.Storage.FileMask)
	v.Set("storage.index", cfg.Storage.Index)
	v.Set("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("watcher.backend", cfg.Watcher.Backend)
	v.Set("watcher.poll_interval", cfg.Watcher.PollInterval.String())
	v.Set("theme.color_work", cfg.Theme.ColorWork)
	v.Set("theme.color_off", cfg.Theme.ColorOff)
	v.Set("theme.color_distracting", cfg.Theme.ColorDistracting)
	v.Set("theme.color_title", cfg.Theme.ColorTitle)
	v.Set("theme.color_help", cfg.Theme.ColorHelp)
	v.Set("theme.gradient_start", cfg.Theme.GradientStart)
	v.Set("theme.gradient_end", cfg.Theme.GradientEnd)
	v.Set("debug", cfg.Debug)

	// Apps are written outside viper so titles keep their case.
	settings := v.AllSettings()
	apps := map[string]any{"detailed": rawEntries(cfg.Apps.Detailed)}
	if len(cfg.Apps.Distracting) > 0 {
		apps["distracting"] = rawEntries(cfg.Apps.Distracting)
	}
	settings["apps"] = apps

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks values that cannot be expressed by defaults.
func (c *Config) Validate() error {
	if len(c.Apps.Detailed) == 0 {
		return fmt.Errorf("%w: path [apps.detailed] should be set in config", domain.ErrConfiguration)
	}
	for _, entry := range c.Apps.Detailed {
		if _, ok := entry.(NoneEntry); ok {
			return fmt.Errorf("%w: [apps.detailed] cannot be %q", domain.ErrConfiguration, noneSentinel)
		}
	}
	if c.TimeLimits.WorkTimeHours <= 0 || c.TimeLimits.BreaksIntervalHours <= 0 || c.TimeLimits.DistractingAppsMins <= 0 {
		return fmt.Errorf("%w: time limits should be positive", domain.ErrConfiguration)
	}
	if c.TimeLimits.ReminderInterval <= 0 {
		return fmt.Errorf("%w: reminder interval should be positive", domain.ErrConfiguration)
	}
	if c.Watcher.PollInterval <= 0 {
		return fmt.Errorf("%w: watcher poll interval should be positive", domain.ErrConfiguration)
	}
	return nil
}

// ApplicationInfos compiles the configured rules. The break time rule
// for the lock screen is appended to the detailed list.
func (c *Config) ApplicationInfos() (detailed, distracting []*domain.ApplicationInfo, err error) {
	detailed, err = ToApplicationInfos(c.Apps.Detailed, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read detailed apps: %w", err)
	}
	distracting, err = ToApplicationInfos(c.Apps.Distracting, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read distracting apps: %w", err)
	}
	return append(detailed, domain.BreakTimeApplicationInfo()), distracting, nil
}

// Matcher builds the application matcher for the configured rules.
func (c *Config) Matcher() (*domain.ApplicationInfoMatcher, error) {
	detailed, distracting, err := c.ApplicationInfos()
	if err != nil {
		return nil, err
	}
	return domain.NewApplicationInfoMatcher(detailed, distracting), nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, appName, "config.yaml"), nil
}

// GetDBPath returns the path to the activity index database.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "index.db")
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

type appsFile struct {
	Apps struct {
		Detailed    any `yaml:"detailed"`
		Distracting any `yaml:"distracting"`
	} `yaml:"apps"`
}

// readApps decodes the apps section straight from YAML since viper
// lower-cases map keys and titles are case sensitive.
func readApps(configPath string, apps *AppsConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var file appsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: failed to parse apps: %v", domain.ErrConfiguration, err)
	}

	if file.Apps.Detailed == nil {
		return fmt.Errorf("%w: path [apps.detailed] should be set in config", domain.ErrConfiguration)
	}
	detailed, err := ParseAppEntries(file.Apps.Detailed)
	if err != nil {
		return fmt.Errorf("failed to parse apps.detailed: %w", err)
	}
	apps.Detailed = detailed

	apps.Distracting = nil
	if file.Apps.Distracting != nil {
		distracting, err := ParseAppEntries(file.Apps.Distracting)
		if err != nil {
			return fmt.Errorf("failed to parse apps.distracting: %w", err)
		}
		apps.Distracting = distracting
	}
	return nil
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("time_limits.work_time_hours", defaults.TimeLimits.WorkTimeHours)
	v.SetDefault("time_limits.breaks_interval_hours", defaults.TimeLimits.BreaksIntervalHours)
	v.SetDefault("time_limits.distracting_apps_mins", defaults.TimeLimits.DistractingAppsMins)
	v.SetDefault("time_limits.reminder_interval", defaults.TimeLimits.ReminderInterval.String())
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("storage.file_mask", defaults.Storage.FileMask)
	v.SetDefault("storage.index", defaults.Storage.Index)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("notifications.enabled", defaults.Notifications.Enabled)
	v.SetDefault("watcher.backend", defaults.Watcher.Backend)
	v.SetDefault("watcher.poll_interval", defaults.Watcher.PollInterval.String())
	v.SetDefault("debug", false)

	v.SetDefault("theme.color_work", defaults.Theme.ColorWork)
	v.SetDefault("theme.color_off", defaults.Theme.ColorOff)
	v.SetDefault("theme.color_distracting", defaults.Theme.ColorDistracting)
	v.SetDefault("theme.color_title", defaults.Theme.ColorTitle)
	v.SetDefault("theme.color_help", defaults.Theme.ColorHelp)
	v.SetDefault("theme.gradient_start", defaults.Theme.GradientStart)
	v.SetDefault("theme.gradient_end", defaults.Theme.GradientEnd)
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join("~", ".local", "share", appName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
