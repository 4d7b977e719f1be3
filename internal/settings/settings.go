package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const (
	ModeTun    = "tun"
	ModeSystem = "system"
)

// Settings is the process-wide runtime configuration. One instance exists,
// loaded at startup and persisted on every mutation.
type Settings struct {
	Mode           string `json:"mode"`
	SocksPort      int    `json:"socks_port"`
	HTTPPort       int    `json:"http_port"`
	DNSPort        int    `json:"dns_port"`
	LogLevel       string `json:"log_level"`
	DomainStrategy string `json:"domain_strategy"`
	AllowInsecure  bool   `json:"allow_insecure"`
	MuxEnabled     bool   `json:"mux_enabled"`
	MuxConcurrency int    `json:"mux_concurrency"`
	BlockAds       bool   `json:"block_ads"`
	BypassLAN      bool   `json:"bypass_lan"`
	BypassCN       bool   `json:"bypass_cn"`
	CustomDNS      string `json:"custom_dns"`
	TunMTU         int    `json:"tun_mtu"`
	Stack          string `json:"stack"`
}

func Defaults() Settings {
	return Settings{
		Mode:           ModeTun,
		SocksPort:      10808,
		HTTPPort:       10809,
		DNSPort:        10853,
		LogLevel:       "warning",
		DomainStrategy: "IPIfNonMatch",
		AllowInsecure:  false,
		MuxEnabled:     false,
		MuxConcurrency: 8,
		BlockAds:       true,
		BypassLAN:      true,
		BypassCN:       false,
		CustomDNS:      "1.1.1.1",
		TunMTU:         9000,
		Stack:          "system",
	}
}

// Store owns the settings document. Load merges the persisted overlay onto
// the defaults, so keys added after an install keep their default values.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

func NewStore(path string) *Store {
	return &Store{path: path, current: Defaults()}
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Defaults()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s.current); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	return nil
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set applies a partial update (JSON key/value pairs) and persists the result.
func (s *Store) Set(patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	updated := s.current
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("invalid settings patch: %w", err)
	}
	if updated.Mode != ModeTun && updated.Mode != ModeSystem {
		return fmt.Errorf("invalid mode %q", updated.Mode)
	}

	s.current = updated
	return s.saveLocked()
}

// Reset restores the defaults and persists them.
func (s *Store) Reset() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Defaults()
	return s.current, s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
