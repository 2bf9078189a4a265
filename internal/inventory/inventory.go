package inventory

import (
	"github.com/pkg/errors"
)

const (
	HostsFile    = "hosts.yaml"
	GroupsFile   = "groups.yaml"
	DefaultsFile = "defaults.yaml"
	ConfigFile   = "config.yaml"

	RunnerPlugin    = "threaded"
	InventoryPlugin = "SimpleInventory"

	DefaultPlatform = "huawei"
	DefaultPort     = 22
	DefaultWorkers  = 5

	// ConnectionPlugin names the connection_options entry read by the ssh client.
	ConnectionPlugin = "ssh"
)

var (
	ErrInventoryLoad  = errors.New("inventory load error")
	ErrInventoryWrite = errors.New("inventory write error")
)

// Inventory is the host/group/runner description handed to the task runner.
type Inventory struct {
	// Hosts in registry order.
	Hosts    []*Host
	Groups   map[string]*Group
	Defaults Group
	Config   Config
}

type Host struct {
	Name     string   `yaml:"-"`
	Hostname string   `yaml:"hostname"`
	Platform string   `yaml:"platform,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Port     int      `yaml:"port,omitempty"`
	Groups   []string `yaml:"groups,omitempty"`
	Data     HostData `yaml:"data"`
}

type HostData struct {
	Site  string `yaml:"site"`
	Model string `yaml:"model"`
}

// Group is also the shape of defaults.yaml.
type Group struct {
	Platform          string                       `yaml:"platform,omitempty"`
	Username          string                       `yaml:"username,omitempty"`
	Password          string                       `yaml:"password,omitempty"`
	Port              int                          `yaml:"port,omitempty"`
	ConnectionOptions map[string]ConnectionOptions `yaml:"connection_options,omitempty"`
}

type ConnectionOptions struct {
	Extras map[string]string `yaml:"extras,omitempty"`
}

type Config struct {
	Runner    RunnerConfig    `yaml:"runner"`
	Inventory InventoryConfig `yaml:"inventory"`
}

type RunnerConfig struct {
	Plugin  string        `yaml:"plugin"`
	Options RunnerOptions `yaml:"options"`
}

type RunnerOptions struct {
	NumWorkers int `yaml:"num_workers"`
}

type InventoryConfig struct {
	Plugin  string           `yaml:"plugin"`
	Options InventoryOptions `yaml:"options"`
}

type InventoryOptions struct {
	HostFile     string `yaml:"host_file"`
	GroupFile    string `yaml:"group_file"`
	DefaultsFile string `yaml:"defaults_file"`
}

// Credentials are the transport credentials shared by every host.
type Credentials struct {
	Username string
	Password string
}

// Workers returns the runner pool size.
func (i *Inventory) Workers() int {
	if i.Config.Runner.Options.NumWorkers <= 0 {
		return 1
	}

	return i.Config.Runner.Options.NumWorkers
}

// DeviceType returns the device_type extra of the host's first group that sets one.
func (i *Inventory) DeviceType(h *Host) string {
	for _, name := range h.Groups {
		g, ok := i.Groups[name]
		if !ok {
			continue
		}

		if dt := g.ConnectionOptions[ConnectionPlugin].Extras["device_type"]; dt != "" {
			return dt
		}
	}

	return h.Platform
}

// Redacted returns a copy with passwords masked, for display.
func (i *Inventory) Redacted() *Inventory {
	const mask = "********"

	out := &Inventory{
		Hosts:    make([]*Host, 0, len(i.Hosts)),
		Groups:   make(map[string]*Group, len(i.Groups)),
		Defaults: i.Defaults,
		Config:   i.Config,
	}

	for _, h := range i.Hosts {
		c := *h
		if c.Password != "" {
			c.Password = mask
		}

		out.Hosts = append(out.Hosts, &c)
	}

	for name, g := range i.Groups {
		c := *g
		if c.Password != "" {
			c.Password = mask
		}

		out.Groups[name] = &c
	}

	if out.Defaults.Password != "" {
		out.Defaults.Password = mask
	}

	return out
}
