package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tastythames/netbackup/internal/config"
	"github.com/tastythames/netbackup/internal/workflow"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Back up running configurations of network devices listed in NetBox",
	Long: `netbackup queries NetBox for active devices of one manufacturer, connects to
each over SSH with a fixed-size worker pool, runs the platform's show-config
command and writes the output to backups/<device>_<YYYYMMDD_HHMMSS>.cfg.

Values missing from the config file, NETBACKUP_* env vars and flags are
prompted for on the console.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadApp()
		if err != nil {
			return err
		}

		return workflow.New(cfg, logger, os.Stdin, os.Stdout).Run(cmd.Context())
	},
}

func execute() error {
	// cancelling lets deferred cleanup remove the credential-bearing inventory files
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func loadApp() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, nil, err
	}

	return cfg, cfg.NewLogger(), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&cfgFile, "config", "", "YAML configuration file")
	pf.String("netbox-url", "", "NetBox base URL, e.g. http://10.0.0.100:8000")
	pf.String("netbox-token", "", "NetBox API token")
	pf.String("manufacturer", "huawei", "NetBox manufacturer slug to back up")
	pf.String("status", "active", "NetBox device status filter")
	pf.Bool("insecure-skip-verify", false, "Skip TLS certificate verification against NetBox")
	pf.Int("netbox-retries", 0, "Retries for failed NetBox requests")
	pf.String("log-level", "info", "Log level - trace, debug, info, warn, error")
	pf.String("ssh-username", "", "SSH username")
	pf.Int("ssh-port", 22, "SSH port")
	pf.String("platform", "huawei", "Device CLI platform")
	pf.Int("workers", 5, "Devices backed up in parallel")

	flags := rootCmd.Flags()
	flags.Duration("ssh-timeout", 30*time.Second, "Per-device dial and command timeout")
	flags.String("known-hosts", "", "known_hosts file; host keys are not checked when empty")
	flags.String("backup-dir", "backups", "Directory receiving backup files")
	flags.String("inventory-dir", ".", "Directory receiving the transient inventory files")
	flags.Bool("in-memory", false, "Hand the inventory to the runner in memory instead of through files")
	flags.String("metrics-textfile", "", "Write run metrics in node_exporter textfile format to this path")

	for key, name := range map[string]string{
		"netbox.url":                  "netbox-url",
		"netbox.token":                "netbox-token",
		"netbox.manufacturer":         "manufacturer",
		"netbox.status":               "status",
		"netbox.insecure_skip_verify": "insecure-skip-verify",
		"netbox.retries":              "netbox-retries",
		"log.level":                   "log-level",
		"ssh.username":                "ssh-username",
		"ssh.port":                    "ssh-port",
		"platform":                    "platform",
		"workers":                     "workers",
	} {
		if err := v.BindPFlag(key, pf.Lookup(name)); err != nil {
			log.Fatal(err)
		}
	}

	for key, name := range map[string]string{
		"ssh.timeout":         "ssh-timeout",
		"ssh.known_hosts":     "known-hosts",
		"backup.dir":          "backup-dir",
		"inventory.dir":       "inventory-dir",
		"inventory.in_memory": "in-memory",
		"metrics.textfile":    "metrics-textfile",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			log.Fatal(err)
		}
	}
}
