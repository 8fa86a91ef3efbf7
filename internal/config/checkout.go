package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CheckoutConfig holds storefront settings that operators tune without a restart.
type CheckoutConfig struct {
	SuccessRedirectURL string        `mapstructure:"successRedirectUrl"`
	FailureRedirectURL string        `mapstructure:"failureRedirectUrl"`
	DescriptionPrefix  string        `mapstructure:"descriptionPrefix"`
	ItemCategory       string        `mapstructure:"itemCategory"`
	ProductURLPattern  string        `mapstructure:"productUrlPattern"`
	InvoiceDuration    time.Duration `mapstructure:"invoiceDuration"`
}

func DefaultCheckoutConfig(publicURL string) CheckoutConfig {
	base := strings.TrimRight(publicURL, "/")
	return CheckoutConfig{
		SuccessRedirectURL: base + "/checkout/success",
		FailureRedirectURL: base + "/checkout/failed",
		DescriptionPrefix:  "Order",
		ItemCategory:       "Sneakers",
		ProductURLPattern:  base + "/products/%s",
		InvoiceDuration:    24 * time.Hour,
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

// NewStaticCheckoutConfigHolder returns a holder that never reloads.
func NewStaticCheckoutConfigHolder(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCheckoutConfigHolder(cfg Config, log *zap.Logger) (*CheckoutConfigHolder, error) {
	log = log.Named("config.checkout")
	v := viper.New()

	v.SetConfigName("storefront")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/storefront")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCheckoutConfig(cfg.PublicURL)
	v.SetDefault("checkout.successRedirectUrl", defaults.SuccessRedirectURL)
	v.SetDefault("checkout.failureRedirectUrl", defaults.FailureRedirectURL)
	v.SetDefault("checkout.descriptionPrefix", defaults.DescriptionPrefix)
	v.SetDefault("checkout.itemCategory", defaults.ItemCategory)
	v.SetDefault("checkout.productUrlPattern", defaults.ProductURLPattern)
	v.SetDefault("checkout.invoiceDuration", defaults.InvoiceDuration)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var current CheckoutConfig
	if err := v.UnmarshalKey("checkout", &current); err != nil {
		return nil, err
	}
	if err := validateCheckoutConfig(current); err != nil {
		return nil, err
	}

	holder := NewStaticCheckoutConfigHolder(current)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CheckoutConfig
		if err := v.UnmarshalKey("checkout", &updated); err != nil {
			log.Warn("checkout config reload failed", zap.Error(err))
			return
		}
		if err := validateCheckoutConfig(updated); err != nil {
			log.Warn("invalid checkout config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("checkout config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	return h.current.Load().(CheckoutConfig)
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if strings.TrimSpace(cfg.SuccessRedirectURL) == "" {
		return errors.New("checkout.successRedirectUrl cannot be empty")
	}
	if strings.TrimSpace(cfg.FailureRedirectURL) == "" {
		return errors.New("checkout.failureRedirectUrl cannot be empty")
	}
	if cfg.InvoiceDuration < 0 {
		return errors.New("checkout.invoiceDuration cannot be negative")
	}
	return nil
}
