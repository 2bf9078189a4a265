package inventory

import (
	"github.com/tastythames/netbackup/internal/registry"
)

// Options are the fixed connection parameters applied to every host.
type Options struct {
	Platform string
	Port     int
	Workers  int
}

// Materialize turns registry devices and credentials into an Inventory.
//
// A device without a primary IP is addressed by its name, which the caller
// must make resolvable.
func Materialize(devices []registry.Device, creds Credentials, opts Options) *Inventory {
	if opts.Platform == "" {
		opts.Platform = DefaultPlatform
	}

	if opts.Port <= 0 {
		opts.Port = DefaultPort
	}

	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	inv := &Inventory{
		Hosts: make([]*Host, 0, len(devices)),
		Groups: map[string]*Group{
			opts.Platform: {
				Platform: opts.Platform,
				ConnectionOptions: map[string]ConnectionOptions{
					ConnectionPlugin: {Extras: map[string]string{"device_type": opts.Platform}},
				},
			},
		},
		Config: Config{
			Runner: RunnerConfig{
				Plugin:  RunnerPlugin,
				Options: RunnerOptions{NumWorkers: opts.Workers},
			},
			Inventory: InventoryConfig{
				Plugin: InventoryPlugin,
				Options: InventoryOptions{
					HostFile:     HostsFile,
					GroupFile:    GroupsFile,
					DefaultsFile: DefaultsFile,
				},
			},
		},
	}

	for _, d := range devices {
		addr := d.Address
		if addr == "" {
			addr = d.Name
		}

		inv.Hosts = append(inv.Hosts, &Host{
			Name:     d.Name,
			Hostname: addr,
			Platform: opts.Platform,
			Username: creds.Username,
			Password: creds.Password,
			Port:     opts.Port,
			Groups:   []string{opts.Platform},
			Data: HostData{
				Site:  d.Site,
				Model: d.Model,
			},
		})
	}

	return inv
}
