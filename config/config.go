// Package config is the typed surface for WIND's recognized configuration
// options (spec.md §6), loaded with viper/pflag the way
// source-build-go-fit/viper.go loads its own service configuration.
//
// Reading config from disk/env/flags is an external-collaborator concern per
// spec.md §1 ("configuration loading" is out of scope); this package only
// defines the typed options the in-scope components accept, plus a thin
// viper-backed loader so the ambient stack is real rather than stubbed.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RegistryConfig covers registry.* options.
type RegistryConfig struct {
	Bind              string `mapstructure:"bind"`
	SweepIntervalSecs int    `mapstructure:"sweep_interval_secs"`
}

// PublisherConfig covers publisher.* options.
type PublisherConfig struct {
	TtlSecs               int `mapstructure:"ttl_secs"`
	HeartbeatIntervalSecs int `mapstructure:"heartbeat_interval_secs"`
}

// QosConfig covers qos.* options.
type QosConfig struct {
	BufferDepth int    `mapstructure:"buffer_depth"`
	Reliability string `mapstructure:"reliability"`
}

// ClientConfig covers client.* options.
type ClientConfig struct {
	RpcTimeoutSecs     int `mapstructure:"rpc_timeout_secs"`
	ConnectMaxAttempts int `mapstructure:"connect_max_attempts"`
}

// Config mirrors spec.md §6's recognized options, nested the way viper keys
// (registry.bind, publisher.ttl_secs, ...) naturally unmarshal.
type Config struct {
	Registry  RegistryConfig  `mapstructure:"registry"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Qos       QosConfig       `mapstructure:"qos"`
	Client    ClientConfig    `mapstructure:"client"`
}

// SweepInterval returns the registry sweeper cadence as a time.Duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Registry.SweepIntervalSecs) * time.Second
}

// HeartbeatInterval returns the publisher/RPC-server re-registration cadence.
// Defaults to ttl/3 per spec.md §4.4 when not explicitly set.
func (c Config) HeartbeatInterval() time.Duration {
	if c.Publisher.HeartbeatIntervalSecs > 0 {
		return time.Duration(c.Publisher.HeartbeatIntervalSecs) * time.Second
	}
	return time.Duration(c.Publisher.TtlSecs) * time.Second / 3
}

// RpcTimeout returns the client's mandatory per-call timeout.
func (c Config) RpcTimeout() time.Duration {
	return time.Duration(c.Client.RpcTimeoutSecs) * time.Second
}

// Defaults returns spec.md §6's stated defaults.
func Defaults() Config {
	return Config{
		Registry:  RegistryConfig{Bind: "127.0.0.1:7001", SweepIntervalSecs: 30},
		Publisher: PublisherConfig{TtlSecs: 60, HeartbeatIntervalSecs: 20},
		Qos:       QosConfig{BufferDepth: 1024, Reliability: "BestEffort"},
		Client:    ClientConfig{RpcTimeoutSecs: 10, ConnectMaxAttempts: 10},
	}
}

// Load reads configuration from an optional file plus environment variables
// and command-line flags, layering over Defaults(). file may be empty, in
// which case only env/flags/defaults apply.
func Load(file string, args []string) (Config, error) {
	v := viper.New()
	def := Defaults()
	v.SetDefault("registry.bind", def.Registry.Bind)
	v.SetDefault("registry.sweep_interval_secs", def.Registry.SweepIntervalSecs)
	v.SetDefault("publisher.ttl_secs", def.Publisher.TtlSecs)
	v.SetDefault("publisher.heartbeat_interval_secs", def.Publisher.HeartbeatIntervalSecs)
	v.SetDefault("qos.buffer_depth", def.Qos.BufferDepth)
	v.SetDefault("qos.reliability", def.Qos.Reliability)
	v.SetDefault("client.rpc_timeout_secs", def.Client.RpcTimeoutSecs)
	v.SetDefault("client.connect_max_attempts", def.Client.ConnectMaxAttempts)

	v.SetEnvPrefix("wind")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	flags := pflag.NewFlagSet("wind", pflag.ContinueOnError)
	flags.String("registry-bind", def.Registry.Bind, "registry listen address")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	_ = v.BindPFlag("registry.bind", flags.Lookup("registry-bind"))

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
