package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DashboardConfig tunes the production dashboard. Status labels are matched
// exactly against stored reference statuses.
type DashboardConfig struct {
	Timezone           string        `mapstructure:"timezone"`
	InProgressStatus   string        `mapstructure:"inProgressStatus"`
	CompletedStatus    string        `mapstructure:"completedStatus"`
	NoCustomerLabel    string        `mapstructure:"noCustomerLabel"`
	NoServiceTypeLabel string        `mapstructure:"noServiceTypeLabel"`
	TopCustomers       int           `mapstructure:"topCustomers"`
	CacheTTL           time.Duration `mapstructure:"cacheTTL"`
}

func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Timezone:           "UTC",
		InProgressStatus:   "in_progress",
		CompletedStatus:    "completed",
		NoCustomerLabel:    "No customer",
		NoServiceTypeLabel: "No service type",
		TopCustomers:       5,
		CacheTTL:           30 * time.Second,
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c DashboardConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c DashboardConfig) EngineOptions() closingperiod.Options {
	return closingperiod.Options{
		InProgressStatus:   c.InProgressStatus,
		CompletedStatus:    c.CompletedStatus,
		NoCustomerLabel:    c.NoCustomerLabel,
		NoServiceTypeLabel: c.NoServiceTypeLabel,
		TopCustomers:       c.TopCustomers,
	}
}

type DashboardConfigHolder struct {
	current atomic.Value // holds DashboardConfig
}

// NewStaticDashboardConfigHolder wraps a fixed config. Used by tests and the CLI.
func NewStaticDashboardConfigHolder(cfg DashboardConfig) *DashboardConfigHolder {
	holder := &DashboardConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewDashboardConfigHolder reads dashboard.yml and keeps it hot-reloaded.
func NewDashboardConfigHolder(appCfg Config, log *zap.Logger) (*DashboardConfigHolder, error) {
	return LoadDashboardConfig("", appCfg.DefaultTimezone, log)
}

// LoadDashboardConfig reads the dashboard config from file, or from the default
// search paths when file is empty.
func LoadDashboardConfig(file, defaultTimezone string, log *zap.Logger) (*DashboardConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("dashboard.config")

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("dashboard")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/atelier")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ATELIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultDashboardConfig()
	if strings.TrimSpace(defaultTimezone) != "" {
		defaults.Timezone = defaultTimezone
	}
	v.SetDefault("dashboard.timezone", defaults.Timezone)
	v.SetDefault("dashboard.inProgressStatus", defaults.InProgressStatus)
	v.SetDefault("dashboard.completedStatus", defaults.CompletedStatus)
	v.SetDefault("dashboard.noCustomerLabel", defaults.NoCustomerLabel)
	v.SetDefault("dashboard.noServiceTypeLabel", defaults.NoServiceTypeLabel)
	v.SetDefault("dashboard.topCustomers", defaults.TopCustomers)
	v.SetDefault("dashboard.cacheTTL", defaults.CacheTTL)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read dashboard config: %w", err)
		}
		fileLoaded = false
	}

	var cfg DashboardConfig
	if err := v.UnmarshalKey("dashboard", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateDashboardConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticDashboardConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DashboardConfig
		if err := v.UnmarshalKey("dashboard", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := ValidateDashboardConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *DashboardConfigHolder) Get() DashboardConfig {
	return h.current.Load().(DashboardConfig)
}

func ValidateDashboardConfig(cfg DashboardConfig) error {
	if strings.TrimSpace(cfg.InProgressStatus) == "" {
		return errors.New("dashboard.inProgressStatus cannot be empty")
	}
	if strings.TrimSpace(cfg.CompletedStatus) == "" {
		return errors.New("dashboard.completedStatus cannot be empty")
	}
	if cfg.InProgressStatus == cfg.CompletedStatus {
		return errors.New("dashboard statuses must differ")
	}
	if cfg.TopCustomers <= 0 {
		return errors.New("dashboard.topCustomers must be positive")
	}
	if cfg.CacheTTL < 0 {
		return errors.New("dashboard.cacheTTL cannot be negative")
	}
	if _, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone)); err != nil {
		return fmt.Errorf("dashboard.timezone: %w", err)
	}
	return nil
}
