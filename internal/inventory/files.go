package inventory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Files are the transient inventory files of one run.
type Files []string

// Paths returns the transient file paths under dir.
func Paths(dir string) Files {
	return Files{
		filepath.Join(dir, HostsFile),
		filepath.Join(dir, GroupsFile),
		filepath.Join(dir, DefaultsFile),
		filepath.Join(dir, ConfigFile),
	}
}

// Write renders inv into dir, overwriting existing files of the same name.
//
// The returned Files are always the full set under dir so a partial write
// can still be cleaned up.
func Write(dir string, inv *Inventory) (Files, error) {
	files := Paths(dir)

	hosts, err := marshalHosts(inv.Hosts)
	if err != nil {
		return files, errors.Wrap(ErrInventoryWrite, "hosts: "+err.Error())
	}

	groups, err := yaml.Marshal(inv.Groups)
	if err != nil {
		return files, errors.Wrap(ErrInventoryWrite, "groups: "+err.Error())
	}

	var defaults []byte
	if !isZeroGroup(&inv.Defaults) {
		if defaults, err = yaml.Marshal(&inv.Defaults); err != nil {
			return files, errors.Wrap(ErrInventoryWrite, "defaults: "+err.Error())
		}
	}

	config, err := yaml.Marshal(&inv.Config)
	if err != nil {
		return files, errors.Wrap(ErrInventoryWrite, "config: "+err.Error())
	}

	// hosts.yaml carries credentials
	for i, b := range [][]byte{hosts, groups, defaults, config} {
		if err := os.WriteFile(files[i], b, 0o600); err != nil {
			return files, errors.Wrap(ErrInventoryWrite, err.Error())
		}
	}

	return files, nil
}

// Load reads a runner config file and the inventory files it names.
//
// File names in the config are resolved relative to the config's directory.
func Load(configPath string) (*Inventory, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(ErrInventoryLoad, "read config: "+err.Error())
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(ErrInventoryLoad, "yaml unmarshal config: "+err.Error())
	}

	if cfg.Inventory.Options.HostFile == "" {
		return nil, errors.Wrap(ErrInventoryLoad, "config: inventory.options.host_file is empty")
	}

	base := filepath.Dir(configPath)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(base, p)
	}

	inv := &Inventory{Config: cfg, Groups: map[string]*Group{}}

	b, err = os.ReadFile(resolve(cfg.Inventory.Options.HostFile))
	if err != nil {
		return nil, errors.Wrap(ErrInventoryLoad, "read hosts: "+err.Error())
	}

	if inv.Hosts, err = unmarshalHosts(b); err != nil {
		return nil, errors.Wrap(ErrInventoryLoad, "hosts: "+err.Error())
	}

	if p := resolve(cfg.Inventory.Options.GroupFile); p != "" {
		if err := readOptionalYAML(p, &inv.Groups); err != nil {
			return nil, errors.Wrap(ErrInventoryLoad, "groups: "+err.Error())
		}
	}

	if p := resolve(cfg.Inventory.Options.DefaultsFile); p != "" {
		if err := readOptionalYAML(p, &inv.Defaults); err != nil {
			return nil, errors.Wrap(ErrInventoryLoad, "defaults: "+err.Error())
		}
	}

	// normalize defaults
	for _, h := range inv.Hosts {
		for _, name := range h.Groups {
			g, ok := inv.Groups[name]
			if !ok {
				return nil, errors.Wrap(ErrInventoryLoad, fmt.Sprintf("host %s: unknown group %q", h.Name, name))
			}

			inherit(h, g)
		}

		inherit(h, &inv.Defaults)

		if h.Hostname == "" {
			h.Hostname = h.Name
		}

		if h.Port == 0 {
			h.Port = DefaultPort
		}
	}

	return inv, nil
}

// Cleanup removes the transient files that exist and reports each removal to w.
func Cleanup(files Files, w io.Writer) error {
	var merr *multierror.Error

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if !os.IsNotExist(err) {
				merr = multierror.Append(merr, err)
			}

			continue
		}

		if err := os.Remove(f); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		fmt.Fprintf(w, "🗑️  removed temporary file: %s\n", f)
	}

	return merr.ErrorOrNil()
}

// MarshalHosts renders hosts as a YAML mapping in the given order.
func MarshalHosts(hosts []*Host) ([]byte, error) {
	return marshalHosts(hosts)
}

func marshalHosts(hosts []*Host) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, h := range hosts {
		v := &yaml.Node{}
		if err := v.Encode(h); err != nil {
			return nil, err
		}

		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: h.Name},
			v,
		)
	}

	return yaml.Marshal(root)
}

func unmarshalHosts(b []byte) ([]*Host, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	if len(doc.Content) == 0 {
		return nil, nil
	}

	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of host name to host", m.Line)
	}

	hosts := make([]*Host, 0, len(m.Content)/2)

	for i := 0; i+1 < len(m.Content); i += 2 {
		h := &Host{Name: m.Content[i].Value}
		if err := m.Content[i+1].Decode(h); err != nil {
			return nil, fmt.Errorf("host %s: %w", h.Name, err)
		}

		hosts = append(hosts, h)
	}

	return hosts, nil
}

func readOptionalYAML(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(b, out)
}

func inherit(h *Host, g *Group) {
	if h.Platform == "" {
		h.Platform = g.Platform
	}

	if h.Username == "" {
		h.Username = g.Username
	}

	if h.Password == "" {
		h.Password = g.Password
	}

	if h.Port == 0 {
		h.Port = g.Port
	}
}

func isZeroGroup(g *Group) bool {
	return g.Platform == "" && g.Username == "" && g.Password == "" && g.Port == 0 && len(g.ConnectionOptions) == 0
}
