// Package config manages YAML/TOML configuration files and CLI overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for devrouter
type Config struct {
	Root       string   `yaml:"root" toml:"root"`
	Host       string   `yaml:"host" toml:"host"`
	Port       int      `yaml:"port" toml:"port"`
	Indexes    []string `yaml:"indexes" toml:"indexes"`
	PHPCGI     string   `yaml:"php_cgi,omitempty" toml:"php_cgi"`
	Watch      bool     `yaml:"watch" toml:"watch"`
	Open       bool     `yaml:"open" toml:"open"`
	Readme     bool     `yaml:"readme" toml:"readme"`
	Metrics    bool     `yaml:"metrics" toml:"metrics"`
	ShowHidden bool     `yaml:"show_hidden" toml:"show_hidden"`
	Exclude    []string `yaml:"exclude" toml:"exclude"`

	// Internal: path to config file for saving
	configPath string
}

// Overrides carries command line values. Nil pointers and zero values mean
// the flag was not given and the file or default value stands.
type Overrides struct {
	ConfigFile string
	Root       string
	Host       string
	Port       int
	PHPCGI     string
	Watch      *bool
	Open       *bool
	Readme     *bool
	Metrics    *bool
	ShowHidden *bool
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Root:    ".",
		Host:    "localhost",
		Port:    8080,
		Indexes: []string{"index.php", "index.html"},
		Watch:   true,
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/devrouter"
	}
	return filepath.Join(home, ".config", "devrouter")
}

// GetConfigPath returns the full path to the global config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// localConfigFiles are looked up in the working directory when no global config exists.
var localConfigFiles = []string{"devrouter.yaml", "devrouter.yml", "devrouter.toml"}

// Load builds the configuration from defaults, the config file and overrides.
func Load(o Overrides) (*Config, error) {
	cfg := DefaultConfig()

	cfgPath := o.ConfigFile
	if cfgPath == "" {
		cfgPath = findConfigFile()
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && o.ConfigFile != "" {
			// Only fail if the user explicitly named the file
			return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = GetConfigPath()
	}

	cfg.apply(o)

	absRoot, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", cfg.Root, err)
	}
	cfg.Root = absRoot

	return cfg, nil
}

func findConfigFile() string {
	if _, err := os.Stat(GetConfigPath()); err == nil {
		return GetConfigPath()
	}
	for _, name := range localConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func (c *Config) apply(o Overrides) {
	if o.Root != "" {
		c.Root = o.Root
	}
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.PHPCGI != "" {
		c.PHPCGI = o.PHPCGI
	}
	setBool(&c.Watch, o.Watch)
	setBool(&c.Open, o.Open)
	setBool(&c.Readme, o.Readme)
	setBool(&c.Metrics, o.Metrics)
	setBool(&c.ShowHidden, o.ShowHidden)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, c)
	}
	return yaml.Unmarshal(data, c)
}

// Validate checks that the document root is a directory and the port is usable.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("document root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("document root %s is not a directory", c.Root)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if len(c.Indexes) == 0 {
		return fmt.Errorf("at least one index document is required")
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Save writes the configuration as YAML to the config file path.
func (c *Config) Save() error {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// SetConfigFilePath changes where Save writes.
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// IsExcluded checks if a path should be hidden from listings and watching
func (c *Config) IsExcluded(path string) bool {
	base := filepath.Base(path)
	if !c.ShowHidden && strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	for _, exclude := range c.Exclude {
		if matched, _ := filepath.Match(exclude, base); matched {
			return true
		}
	}
	return false
}
