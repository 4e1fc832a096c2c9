// Package config loads the notifier daemon configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/VanDung-dev/HieraChain-Notify/notify"
)

// DefaultHighWaterMark is used for notifiers without an explicit HWM.
const DefaultHighWaterMark = notify.DefaultHighWaterMark

// EnvPrefix prefixes every notifier variable: ZMQ_PUBHASHBLOCK=tcp://...,
// ZMQ_PUBHASHBLOCKHWM=1000.
const EnvPrefix = "ZMQ_"

// NotifierConfig binds one notifier type to an address.
type NotifierConfig struct {
	Type          string `json:"type"`
	Address       string `json:"address"`
	HighWaterMark int    `json:"hwm"`
}

// Config is the daemon configuration.
type Config struct {
	Notifiers      []NotifierConfig `json:"notifiers"`
	MetricsAddress string           `json:"metrics_address"`
	BlockStoreURL  string           `json:"block_store_url"`
	JournalPath    string           `json:"journal_path"`
	Debug          bool             `json:"debug"`
}

// DefaultConfig returns a configuration with no notifiers enabled.
func DefaultConfig() Config {
	return Config{
		Notifiers:      []NotifierConfig{},
		MetricsAddress: ":9332",
		BlockStoreURL:  "memory://",
	}
}

// Load reads envFile into the process environment, if it exists, and then
// builds the configuration from the environment. Variables already set take
// precedence over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	for _, typ := range notify.Types() {
		key := EnvPrefix + strings.ToUpper(typ)
		addr, ok := lookup(key)
		if !ok || addr == "" {
			continue
		}
		hwm := DefaultHighWaterMark
		if v, ok := lookup(key + "HWM"); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %sHWM %q: %w", key, v, err)
			}
			hwm = n
		}
		cfg.Notifiers = append(cfg.Notifiers, NotifierConfig{Type: typ, Address: addr, HighWaterMark: hwm})
	}

	if v, ok := lookup("NOTIFY_METRICS_ADDR"); ok {
		cfg.MetricsAddress = v
	}
	if v, ok := lookup("NOTIFY_BLOCK_STORE"); ok && v != "" {
		cfg.BlockStoreURL = v
	}
	if v, ok := lookup("NOTIFY_JOURNAL"); ok {
		cfg.JournalPath = v
	}
	if v, ok := lookup("NOTIFY_DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NOTIFY_DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}

	return cfg, cfg.Validate()
}

// Validate checks every notifier entry.
func (c Config) Validate() error {
	for _, n := range c.Notifiers {
		if !knownType(n.Type) {
			return fmt.Errorf("unknown notifier type %q", n.Type)
		}
		if !strings.Contains(n.Address, "://") {
			return fmt.Errorf("%s: address %q is not an endpoint URI", n.Type, n.Address)
		}
		if n.HighWaterMark <= 0 {
			return fmt.Errorf("%s: high water mark must be positive, got %d", n.Type, n.HighWaterMark)
		}
	}
	return nil
}

func knownType(typ string) bool {
	for _, t := range notify.Types() {
		if t == typ {
			return true
		}
	}
	return false
}
