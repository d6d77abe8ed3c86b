// ABOUTME: Server and board configuration: defaults, then kanban.yaml or kanban.toml, then KANBAN_* env vars.
// ABOUTME: Enforces security constraint: remote access requires an auth token.
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/store"
)

var (
	ErrRemoteWithoutToken = errors.New(
		"KANBAN_ALLOW_REMOTE is true but KANBAN_AUTH_TOKEN is not set; refusing to start without authentication",
	)
	ErrNonLoopbackBind = errors.New(
		"KANBAN_BIND is a non-loopback address but KANBAN_ALLOW_REMOTE is not true; set KANBAN_ALLOW_REMOTE=true and KANBAN_AUTH_TOKEN to allow remote access",
	)
)

// DefaultBind is the loopback address the server listens on by default.
const DefaultBind = "127.0.0.1:7780"

// configFileNames are searched in order inside the config directory.
var configFileNames = []string{"kanban.yaml", "kanban.yml", "kanban.toml"}

// Config holds the settings shared by the server, the TUI, and the CLI.
type Config struct {
	Home        string        `yaml:"home" toml:"home"`                 // KANBAN_HOME
	Bind        string        `yaml:"bind" toml:"bind"`                 // KANBAN_BIND
	AllowRemote bool          `yaml:"allow_remote" toml:"allow_remote"` // KANBAN_ALLOW_REMOTE
	AuthToken   string        `yaml:"auth_token" toml:"auth_token"`     // KANBAN_AUTH_TOKEN
	Backend     store.Backend `yaml:"backend" toml:"backend"`           // KANBAN_BACKEND
	// Rules are the defaults applied to newly created boards.
	Rules core.Rules `yaml:"rules" toml:"rules"`

	// Source is the config file that was loaded, if any.
	Source string `yaml:"-" toml:"-"`
}

// DefaultConfig returns the built-in settings rooted at home.
func DefaultConfig(home string) Config {
	rules := core.DefaultRules()
	rules.DeleteScope = ""
	return Config{
		Home:    home,
		Bind:    DefaultBind,
		Backend: store.BackendFile,
		Rules:   rules,
	}
}

// LoadConfig layers the config file and the environment over DefaultConfig(defaultHome).
// KANBAN_CONFIG names the file explicitly; otherwise configDir is searched.
func LoadConfig(defaultHome, configDir string) (*Config, error) {
	cfg := DefaultConfig(defaultHome)

	path := os.Getenv("KANBAN_CONFIG")
	if path == "" && configDir != "" {
		for _, name := range configFileNames {
			candidate := filepath.Join(configDir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := LoadConfigFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFile decodes a YAML or TOML file over cfg. Fields absent from the
// file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}
	cfg.Source = path
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("KANBAN_HOME"); v != "" {
		cfg.Home = v
	}
	if v := os.Getenv("KANBAN_BIND"); v != "" {
		cfg.Bind = v
	}
	if v, ok := os.LookupEnv("KANBAN_ALLOW_REMOTE"); ok {
		cfg.AllowRemote = truthy(v)
	}
	if v := os.Getenv("KANBAN_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("KANBAN_BACKEND"); v != "" {
		cfg.Backend = store.Backend(v)
	}
	if v := os.Getenv("KANBAN_VARIANT"); v != "" {
		variant, err := core.ParseVariant(v)
		if err != nil {
			return fmt.Errorf("KANBAN_VARIANT: %w", err)
		}
		cfg.Rules.Variant = variant
	}
	if v := os.Getenv("KANBAN_DELETE_SCOPE"); v != "" {
		scope, err := core.ParseDeleteScope(v)
		if err != nil {
			return fmt.Errorf("KANBAN_DELETE_SCOPE: %w", err)
		}
		cfg.Rules.DeleteScope = scope
	}
	if v, ok := os.LookupEnv("KANBAN_AUDIT_TOGGLES"); ok {
		cfg.Rules.AuditToggles = truthy(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"KANBAN_BACKLOG_LIMIT", &cfg.Rules.BacklogLimit},
		{"KANBAN_IN_PROGRESS_LIMIT", &cfg.Rules.InProgressLimit},
		{"KANBAN_MIN_ITEMS", &cfg.Rules.MinItems},
		{"KANBAN_MAX_ITEMS", &cfg.Rules.MaxItems},
	}
	for _, it := range ints {
		v := os.Getenv(it.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", it.key, err)
		}
		*it.dst = n
	}
	return nil
}

// Override replaces Home, Backend, and Bind with any non-empty argument and
// revalidates. Command-line flags take precedence over files and env.
func (c *Config) Override(home, backend, bind string) error {
	if home != "" {
		c.Home = home
	}
	if backend != "" {
		c.Backend = store.Backend(backend)
	}
	if bind != "" {
		c.Bind = bind
	}
	return c.finish()
}

// finish resolves derived defaults and validates the result.
func (c *Config) finish() error {
	if c.Home == "" {
		return errors.New("no data directory configured; set KANBAN_HOME")
	}
	backend, err := store.ParseBackend(string(c.Backend))
	if err != nil {
		return err
	}
	c.Backend = backend

	if c.Rules.DeleteScope == "" {
		c.Rules.DeleteScope = DefaultDeleteScope(c.Rules.Variant)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("invalid board rules: %w", err)
	}

	if c.AllowRemote && c.AuthToken == "" {
		return ErrRemoteWithoutToken
	}

	if !c.AllowRemote && !loopbackBind(c.Bind) {
		return fmt.Errorf("%w: KANBAN_BIND=%s", ErrNonLoopbackBind, c.Bind)
	}
	return nil
}

// loopbackBind reports whether addr listens only on loopback. Only
// 127.0.0.0/8, ::1, and "localhost" count; an empty host listens everywhere.
func loopbackBind(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// DefaultDeleteScope returns the delete scope a variant uses unless configured otherwise.
func DefaultDeleteScope(v core.Variant) core.DeleteScope {
	if v == core.VariantChecklist {
		return core.DeleteBacklogOnly
	}
	return core.DeleteAnywhere
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
