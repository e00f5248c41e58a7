package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	InviteTimeout         time.Duration `mapstructure:"invite_timeout"`
	DestroyRoomOnHostExit bool          `mapstructure:"destroy_room_on_host_exit"`
	MaxSeatCount          int           `mapstructure:"max_seat_count"`
	EventLogSize          int           `mapstructure:"event_log_size"`

	MsgRateLimit  int           `mapstructure:"msg_rate_limit"`
	MsgRateWindow time.Duration `mapstructure:"msg_rate_window"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("invite_timeout", "30s")
	v.SetDefault("destroy_room_on_host_exit", true)
	v.SetDefault("max_seat_count", 64)
	v.SetDefault("event_log_size", 256)
	v.SetDefault("msg_rate_limit", 10)
	v.SetDefault("msg_rate_window", "10s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | InviteTimeout: %s\n", cfg.Mode, cfg.Port, cfg.InviteTimeout)
	return &cfg, nil
}
