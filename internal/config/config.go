package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/tastythames/netbackup/internal/sshclient"
)

const (
	AppName   = "netbackup"
	EnvPrefix = "NETBACKUP"
)

var ErrConfig = errors.New("configuration error")

// Config holds application configuration read from a YAML file, env
// variables and flags, in increasing order of precedence.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type Config struct {
	Netbox    NetboxConfig    `mapstructure:"netbox"`
	SSH       SSHConfig       `mapstructure:"ssh"`
	Platform  string          `mapstructure:"platform"`
	Workers   int             `mapstructure:"workers"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type NetboxConfig struct {
	URL          string        `mapstructure:"url"`
	Token        string        `mapstructure:"token"`
	Manufacturer string        `mapstructure:"manufacturer"`
	Status       string        `mapstructure:"status"`
	PageSize     int           `mapstructure:"page_size"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Retries      int           `mapstructure:"retries"`
	// InsecureSkipVerify disables TLS certificate checks against NetBox.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

type SSHConfig struct {
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Port       int           `mapstructure:"port"`
	Timeout    time.Duration `mapstructure:"timeout"`
	KnownHosts string        `mapstructure:"known_hosts"`
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

type InventoryConfig struct {
	// Dir receives the transient inventory files.
	Dir string `mapstructure:"dir"`
	// InMemory hands the inventory to the runner without the file round trip.
	InMemory bool `mapstructure:"in_memory"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers every key so env vars bind during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("netbox.url", "")
	v.SetDefault("netbox.token", "")
	v.SetDefault("netbox.manufacturer", "huawei")
	v.SetDefault("netbox.status", "active")
	v.SetDefault("netbox.page_size", 100)
	v.SetDefault("netbox.timeout", 30*time.Second)
	v.SetDefault("netbox.retries", 0)
	v.SetDefault("netbox.insecure_skip_verify", false)

	v.SetDefault("ssh.username", "")
	v.SetDefault("ssh.password", "")
	v.SetDefault("ssh.port", sshclient.DefaultPort)
	v.SetDefault("ssh.timeout", sshclient.DefaultTimeout)
	v.SetDefault("ssh.known_hosts", "")

	v.SetDefault("platform", "huawei")
	v.SetDefault("workers", 5)
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("inventory.dir", ".")
	v.SetDefault("inventory.in_memory", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
}

// Load reads in cfgFile when set and applies env variable overrides.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if cfgFile != "" {
		fh, err := os.Open(cfgFile)
		if err != nil {
			return nil, errors.Wrap(ErrConfig, err.Error())
		}
		defer fh.Close()

		if err = v.ReadConfig(fh); err != nil {
			return nil, errors.Wrap(ErrConfig, "ReadConfig error: "+err.Error())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(ErrConfig, "Unmarshal error: "+err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that are not prompted for.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return errors.Wrap(ErrConfig, "workers must be > 0")
	}

	if c.SSH.Port <= 0 || c.SSH.Port > 65535 {
		return errors.Wrap(ErrConfig, "ssh.port out of range")
	}

	if c.Netbox.Retries < 0 {
		return errors.Wrap(ErrConfig, "netbox.retries must be >= 0")
	}

	if c.Backup.Dir == "" {
		return errors.Wrap(ErrConfig, "backup.dir is empty")
	}

	if _, err := sshclient.LookupPlatform(c.Platform); err != nil {
		return errors.Wrap(ErrConfig, err.Error())
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(ErrConfig, err.Error())
	}

	return nil
}

// NewLogger returns a stderr text logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	l.SetLevel(lvl)

	return l
}
