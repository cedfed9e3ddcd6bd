package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(missing) = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	contents := `
default_port: 4000
neighbours: 3
max_connections: 8
protocol:
  version: 2
  ttl: 4
  max_ttl: 6
bootstrap:
  ip: 10.0.0.1
  port: 4000
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DefaultPort != 4000 {
		t.Errorf("DefaultPort = %d, want 4000", cfg.DefaultPort)
	}
	if cfg.Neighbours != 3 {
		t.Errorf("Neighbours = %d, want 3", cfg.Neighbours)
	}
	if cfg.MaxConnections != 8 {
		t.Errorf("MaxConnections = %d, want 8", cfg.MaxConnections)
	}
	if cfg.ProtocolConfig.Version != 2 || cfg.ProtocolConfig.TTL != 4 || cfg.ProtocolConfig.MaxTTL != 6 {
		t.Errorf("ProtocolConfig = %+v, want {2 4 6}", cfg.ProtocolConfig)
	}
	if cfg.BootstrapConfig.IP != "10.0.0.1" || cfg.BootstrapConfig.Port != 4000 {
		t.Errorf("BootstrapConfig = %+v, want {10.0.0.1 4000}", cfg.BootstrapConfig)
	}
	// default_ip wasn't set in the file, so the default must survive.
	if cfg.DefaultIP != "127.0.0.1" {
		t.Errorf("DefaultIP = %q, want 127.0.0.1 (unset key should keep default)", cfg.DefaultIP)
	}
}
