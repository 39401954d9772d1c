package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CheckoutConfig carries file-backed checkout settings that operators may
// tune without a redeploy.
type CheckoutConfig struct {
	// SuccessPath is appended to the frontend base URL to build the
	// post-payment redirect target.
	SuccessPath string `mapstructure:"successPath"`
	// AllowedCurrencies restricts which webhook currencies are persisted
	// verbatim; anything else is still stored but logged.
	AllowedCurrencies []string `mapstructure:"allowedCurrencies"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		SuccessPath:       "/success",
		AllowedCurrencies: []string{"USD", "EUR"},
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

func NewCheckoutConfigHolder() (*CheckoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/antigravity")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ANTIGRAVITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultCheckoutConfig()
		v.SetDefault("checkout.successPath", defaults.SuccessPath)
		v.SetDefault("checkout.allowedCurrencies", defaults.AllowedCurrencies)
	}

	holder := &CheckoutConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("checkout config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticCheckoutConfigHolder pins a fixed configuration. Intended for
// tests and tools that bypass the file watcher.
func NewStaticCheckoutConfigHolder(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *CheckoutConfigHolder) reload(v *viper.Viper) error {
	var cfg CheckoutConfig
	if err := v.UnmarshalKey("checkout", &cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.SuccessPath) == "" {
		cfg.SuccessPath = DefaultCheckoutConfig().SuccessPath
	}
	if !strings.HasPrefix(cfg.SuccessPath, "/") {
		cfg.SuccessPath = "/" + cfg.SuccessPath
	}
	h.current.Store(cfg)
	return nil
}

// Current returns the active checkout configuration snapshot.
func (h *CheckoutConfigHolder) Current() CheckoutConfig {
	if cfg, ok := h.current.Load().(CheckoutConfig); ok {
		return cfg
	}
	return DefaultCheckoutConfig()
}
