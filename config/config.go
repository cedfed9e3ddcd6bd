// Package config loads node configuration from a YAML file: a handful
// of top-level and nested keys with sane defaults so a node can run
// without any config file at all.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Protocol holds the wire-protocol tunables.
type Protocol struct {
	Version uint8 `yaml:"version"`
	TTL     uint8 `yaml:"ttl"`
	MaxTTL  uint8 `yaml:"max_ttl"`
}

// Bootstrap names the default peer used to join the overlay.
type Bootstrap struct {
	IP   string `yaml:"ip"`
	Port uint16 `yaml:"port"`
}

// Config is the full set of recognized configuration keys.
type Config struct {
	DefaultIP       string    `yaml:"default_ip"`
	DefaultPort     uint16    `yaml:"default_port"`
	Neighbours      int       `yaml:"neighbours"`
	MaxConnections  int       `yaml:"max_connections"`
	ProtocolConfig  Protocol  `yaml:"protocol"`
	BootstrapConfig Bootstrap `yaml:"bootstrap"`
}

// Default returns the configuration defaults for the wire protocol,
// used whenever a key is absent from the loaded file.
func Default() Config {
	return Config{
		DefaultIP:      "127.0.0.1",
		DefaultPort:    1337,
		Neighbours:     5,
		MaxConnections: 10,
		ProtocolConfig: Protocol{
			Version: 1,
			TTL:     5,
			MaxTTL:  7,
		},
	}
}

// Load reads and parses the YAML configuration file at path, applying
// its values on top of Default(). A missing file is not an error: the
// node simply runs with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "config: reading %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parsing %s", path)
	}

	return cfg, nil
}
