package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Config is the global user configuration. Flags and PLANSHEET_* environment
// variables take precedence over every field.
type Config struct {
	ServerURL string `json:"serverUrl,omitempty"`
	ProjectID string `json:"projectId,omitempty"`

	// Token is the anti-forgery token. Cookie is a raw Cookie header; when
	// Token is empty the csrftoken cookie inside it is used.
	Token  string `json:"token,omitempty"`
	Cookie string `json:"cookie,omitempty"`

	// SectionsFile points at a YAML section list. Empty means built-in sections.
	SectionsFile string `json:"sectionsFile,omitempty"`

	ReadOnly bool `json:"readOnly,omitempty"`

	// TimeoutSeconds bounds each HTTP request; 0 keeps the transport default.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`

	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `json:"theme,omitempty"`
	// PageSize overrides the table page size in the TUI.
	PageSize int `json:"pageSize,omitempty"`
}

// ConfigKeys lists the keys accepted by SetConfigValue, in display order.
var ConfigKeys = []string{
	"serverUrl",
	"projectId",
	"token",
	"cookie",
	"sectionsFile",
	"readOnly",
	"timeoutSeconds",
	"tui.theme",
	"tui.pageSize",
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.plansheet).
	if v := strings.TrimSpace(os.Getenv("PLANSHEET_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".plansheet"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Keep the previous config around; failures here never block a save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o600)
	}

	// The file can hold a token, so keep it private.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// SetConfigValue assigns one dotted key. An empty value clears it.
func SetConfigValue(cfg *Config, key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "serverUrl":
		cfg.ServerURL = strings.TrimRight(value, "/")
	case "projectId":
		cfg.ProjectID = value
	case "token":
		cfg.Token = value
	case "cookie":
		cfg.Cookie = value
	case "sectionsFile":
		cfg.SectionsFile = value
	case "readOnly":
		b, err := parseBoolValue(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.ReadOnly = b
	case "timeoutSeconds":
		n, err := parseIntValue(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.TimeoutSeconds = n
	case "tui.theme":
		if value != "" && !slices.Contains([]string{"auto", "dark", "light"}, value) {
			return fmt.Errorf("%s: expected auto|dark|light, got %q", key, value)
		}
		cfg.tui().Theme = value
	case "tui.pageSize":
		n, err := parseIntValue(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.tui().PageSize = n
	default:
		return fmt.Errorf("unknown config key %q (want one of: %s)", key, strings.Join(ConfigKeys, ", "))
	}
	if cfg.TUI != nil && *cfg.TUI == (TUIConfig{}) {
		cfg.TUI = nil
	}
	return nil
}

func (c *Config) tui() *TUIConfig {
	if c.TUI == nil {
		c.TUI = &TUIConfig{}
	}
	return c.TUI
}

func parseBoolValue(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func parseIntValue(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must be >= 0, got %d", n)
	}
	return n, nil
}
