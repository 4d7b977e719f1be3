package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	XrayVersion      = "1.8.24"
	Tun2socksVersion = "2.5.2"
)

// Config describes the host environment: where state lives, which binaries
// we supervise and where to fetch them from. Runtime behaviour (ports, mode,
// routing toggles) lives in the settings document instead.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	RuntimeDir string `yaml:"runtime_dir"`
	LogDir     string `yaml:"log_dir"`
	BinDir     string `yaml:"bin_dir"`

	TunDevice string `yaml:"tun_device"`

	XrayURL      string `yaml:"xray_url"`
	Tun2socksURL string `yaml:"tun2socks_url"`

	Checker CheckerConfig `yaml:"checker"`
}

type CheckerConfig struct {
	TestURL string        `yaml:"test_url"`
	EchoURL string        `yaml:"echo_url"`
	Timeout time.Duration `yaml:"timeout"`

	GeoIPASNPath     string `yaml:"geoip_asn_path"`
	GeoIPCountryPath string `yaml:"geoip_country_path"`
}

// XrayBin returns the expected path of the proxy engine executable.
func (c *Config) XrayBin() string {
	return filepath.Join(c.BinDir, "xray")
}

// Tun2socksBin returns the expected path of the TUN bridging helper.
func (c *Config) Tun2socksBin() string {
	return filepath.Join(c.BinDir, "tun2socks")
}

// ProfileDir returns the directory holding saved profile documents.
func (c *Config) ProfileDir() string {
	return filepath.Join(c.DataDir, "profiles")
}

// SettingsFile returns the path of the persisted settings document.
func (c *Config) SettingsFile() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// HistoryDB returns the path of the connection history database.
func (c *Config) HistoryDB() string {
	return filepath.Join(c.DataDir, "history.db")
}

// RuntimeConfigFile returns the path the generated engine config is written to.
func (c *Config) RuntimeConfigFile() string {
	return filepath.Join(c.RuntimeDir, "xray-config.json")
}

// EnsureDirs creates every directory the rest of the system assumes exists.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.RuntimeDir, c.LogDir, c.BinDir, c.ProfileDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = "config.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// No config file is fine; defaults cover a stock install.
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".v2deck")

	return &Config{
		DataDir:      filepath.Join(base, "settings"),
		RuntimeDir:   filepath.Join(base, "runtime"),
		LogDir:       filepath.Join(base, "logs"),
		BinDir:       filepath.Join(base, "bin"),
		TunDevice:    "tun0",
		XrayURL:      fmt.Sprintf("https://github.com/XTLS/Xray-core/releases/download/v%s/Xray-linux-64.zip", XrayVersion),
		Tun2socksURL: fmt.Sprintf("https://github.com/xjasonlyu/tun2socks/releases/download/v%s/tun2socks-linux-amd64.zip", Tun2socksVersion),
		Checker: CheckerConfig{
			TestURL:          "https://www.google.com",
			EchoURL:          "https://api.ipify.org?format=json",
			Timeout:          10 * time.Second,
			GeoIPASNPath:     "GeoLite2-ASN.mmdb",
			GeoIPCountryPath: "GeoLite2-Country.mmdb",
		},
	}
}
