package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "DUMBSERVE_"

	defaultSourceCode = "https://github.com/realaravinth/dumbserve"
)

// Search order used when neither -config nor DUMBSERVE_CONFIG is set.
var searchPaths = []string{
	"./config/default.json",
	"./config/default.yaml",
	"./config/default.yml",
	"/etc/dumbserve/config.json",
	"/etc/dumbserve/config.yaml",
	"/etc/dumbserve/config.yml",
}

// ErrNoConfigFile is returned by Locate when no file was given and none of the
// default locations exist. Load treats it as "run on defaults".
var ErrNoConfigFile = errors.New("configuration file not found")

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		SourceCode: defaultSourceCode,
		Server: Server{
			IP:     "0.0.0.0",
			Port:   7000,
			Domain: "localhost",
		},
		Files: Files{
			Path: "./tmp",
		},
	}
}

// Load builds a Config: .env file, defaults, config file, DUMBSERVE_*
// environment overrides, PORT, then validation. path may be empty.
// It creates the files root on success.
func Load(path string) (*Config, string, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Defaults()

	file, err := Locate(path)
	switch {
	case errors.Is(err, ErrNoConfigFile):
		file = ""
	case err != nil:
		return nil, "", err
	default:
		if err := ReadFile(file, &cfg); err != nil {
			return nil, "", err
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(cfg.Files.Path, 0o755); err != nil {
		return nil, "", fmt.Errorf("mkdir files root: %w", err)
	}
	return &cfg, file, nil
}

// Locate picks the config file: explicit path, then DUMBSERVE_CONFIG, then the
// first existing default location.
func Locate(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, nil
	}
	for _, p := range searchPaths {
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", ErrNoConfigFile
}

// ReadFile decodes file into cfg. Keys absent from the file keep their
// current values. .yaml/.yml files are YAML, everything else JSON.
func ReadFile(file string, cfg *Config) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		err = json.Unmarshal(b, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", file, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"SOURCE_CODE", &cfg.SourceCode},
		{"SERVER_IP", &cfg.Server.IP},
		{"SERVER_DOMAIN", &cfg.Server.Domain},
		{"SERVER_URL_PREFIX", &cfg.Server.URLPrefix},
		{"FILES_PATH", &cfg.Files.Path},
		{"FILES_BROWSE_ROOT", &cfg.Files.BrowseRoot},
	}
	for _, s := range strs {
		if v, ok := lookup(EnvPrefix + s.key); ok {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"DEBUG", &cfg.Debug},
		{"COMMERCIAL", &cfg.Commercial},
		{"ALLOW_REGISTRATION", &cfg.AllowRegistration},
		{"SERVER_PROXY_HAS_TLS", &cfg.Server.ProxyHasTLS},
		{"SERVER_METRICS", &cfg.Server.Metrics},
		{"FILES_DISABLE_WEBDAV", &cfg.Files.DisableWebDAV},
	}
	for _, b := range bools {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.key, err)
		}
		*b.dst = parsed
	}

	ports := []string{EnvPrefix + "SERVER_PORT", "PORT"}
	for _, key := range ports {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("couldn't interpret %s: %w", key, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Validate checks required fields and fills derived defaults.
func (c *Config) Validate() error {
	u, err := url.Parse(c.SourceCode)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source_code must be an absolute URL, got %q", c.SourceCode)
	}
	if strings.TrimSpace(c.Files.Path) == "" {
		return errors.New("files.path is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	for i, cr := range c.Files.Creds {
		if cr.Username == "" {
			return fmt.Errorf("files.creds[%d]: username is required", i)
		}
		if cr.Password == "" && cr.Bcrypt == "" {
			return fmt.Errorf("files.creds[%d] (%s): password or bcrypt is required", i, cr.Username)
		}
	}
	if c.Files.BrowseRoot == "" {
		c.Files.BrowseRoot = c.Files.Path
	}
	return nil
}
