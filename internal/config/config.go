package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	FreeTierLimitBytes int64 = 250 * 1024 * 1024
	PaidTierLimitBytes int64 = 1024 * 1024 * 1024
)

type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	IPFS    IPFSConfig    `mapstructure:"ipfs"`
	Quota   QuotaConfig   `mapstructure:"quota"`
	Contact ContactConfig `mapstructure:"contact"`
	AppHost string        `mapstructure:"host"`
}

type DBConfig struct {
	Source string `mapstructure:"source"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type IPFSConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// QuotaConfig is resolved once at startup and handed to the admission
// controller; nothing reads quota settings from the environment at call time.
type QuotaConfig struct {
	// TestingMode disables quota enforcement entirely while still
	// recording usage (beta deployments).
	TestingMode    bool  `mapstructure:"testing_mode"`
	FreeLimitBytes int64 `mapstructure:"free_limit_bytes"`
	PaidLimitBytes int64 `mapstructure:"paid_limit_bytes"`
}

type ContactConfig struct {
	Inbox string `mapstructure:"inbox"`
}

func Load() (*Config, error) {
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/configs")
	viper.SetConfigName("settings")
	viper.SetConfigType("yml")

	viper.SetDefault("ipfs.api_url", "http://localhost:5001/api/v0")
	viper.SetDefault("ipfs.timeout", 10*time.Second)
	viper.SetDefault("quota.testing_mode", false)
	viper.SetDefault("quota.free_limit_bytes", FreeTierLimitBytes)
	viper.SetDefault("quota.paid_limit_bytes", PaidTierLimitBytes)

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LimitForTier maps a tier name to its storage limit in bytes.
func (q QuotaConfig) LimitForTier(tier string) int64 {
	if tier == "paid" {
		return q.PaidLimitBytes
	}
	return q.FreeLimitBytes
}
