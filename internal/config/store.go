package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// StoreProfile describes the store identity printed on receipts and reports.
type StoreProfile struct {
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"`
	Phone    string `mapstructure:"phone"`
	TaxCode  string `mapstructure:"taxCode"`
	Footer   string `mapstructure:"footer"`
	Currency string `mapstructure:"currency"`
}

func DefaultStoreProfile() StoreProfile {
	return StoreProfile{
		Name:     "GoMart",
		Address:  "123 Le Loi, District 1, Ho Chi Minh City",
		Phone:    "1900 0000",
		Footer:   "Thank you for shopping with us",
		Currency: "VND",
	}
}

// StoreProfileHolder serves the current store profile and hot-reloads it
// when the backing config file changes.
type StoreProfileHolder struct {
	current atomic.Value // holds StoreProfile
}

func NewStoreProfileHolder() (*StoreProfileHolder, error) {
	v := viper.New()

	v.SetConfigName("store")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/gomart/config")
	v.AddConfigPath("/etc/gomart")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GOMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultStoreProfile()
		v.SetDefault("store.name", defaults.Name)
		v.SetDefault("store.address", defaults.Address)
		v.SetDefault("store.phone", defaults.Phone)
		v.SetDefault("store.footer", defaults.Footer)
		v.SetDefault("store.currency", defaults.Currency)
	}

	var profile StoreProfile
	if err := v.UnmarshalKey("store", &profile); err != nil {
		return nil, err
	}
	if err := validateStoreProfile(profile); err != nil {
		return nil, err
	}

	holder := &StoreProfileHolder{}
	holder.current.Store(profile)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated StoreProfile
		if err := v.UnmarshalKey("store", &updated); err != nil {
			log.Printf("[store-config] reload failed: %v", err)
			return
		}
		if err := validateStoreProfile(updated); err != nil {
			log.Printf("[store-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[store-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *StoreProfileHolder) Get() StoreProfile {
	return h.current.Load().(StoreProfile)
}

func validateStoreProfile(profile StoreProfile) error {
	if strings.TrimSpace(profile.Name) == "" {
		return errors.New("store.name cannot be empty")
	}
	if strings.TrimSpace(profile.Currency) == "" {
		return errors.New("store.currency cannot be empty")
	}
	return nil
}
