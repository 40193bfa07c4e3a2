package config

import (
	"net"
	"strconv"
)

// Config is constructed once at startup and handed to every component that
// needs it. It decodes from JSON or YAML using the same snake_case keys.
type Config struct {
	Debug             bool `json:"debug" yaml:"debug"`
	Commercial        bool `json:"commercial" yaml:"commercial"`
	AllowRegistration bool `json:"allow_registration" yaml:"allow_registration"`

	// SourceCode is the repository URL used to build the build-details link
	// (<source_code>/tree/<commit>). Must be an absolute URL.
	SourceCode string `json:"source_code" yaml:"source_code"`

	Server Server `json:"server" yaml:"server"`
	Files  Files  `json:"files" yaml:"files"`
}

type Server struct {
	IP          string `json:"ip" yaml:"ip"`
	Port        int    `json:"port" yaml:"port"`
	Domain      string `json:"domain" yaml:"domain"`
	URLPrefix   string `json:"url_prefix,omitempty" yaml:"url_prefix,omitempty"`
	ProxyHasTLS bool   `json:"proxy_has_tls" yaml:"proxy_has_tls"`

	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Addr returns the listen address, e.g. "0.0.0.0:7000".
func (s Server) Addr() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

type Files struct {
	// Path is the root under which every user gets <path>/<username>/.
	Path string `json:"path" yaml:"path"`

	// BrowseRoot is served read-only and without auth at "/".
	// Default: Path.
	BrowseRoot string `json:"browse_root,omitempty" yaml:"browse_root,omitempty"`

	// DisableWebDAV turns off the per-user WebDAV mount at /dav/.
	DisableWebDAV bool `json:"disable_webdav,omitempty" yaml:"disable_webdav,omitempty"`

	Creds []Cred `json:"creds" yaml:"creds"`
}

// Cred is one allowed username/password pair. Either Password (compared
// verbatim) or Bcrypt (a hash from `dumbserve passwd`) must be set.
type Cred struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Bcrypt   string `json:"bcrypt,omitempty" yaml:"bcrypt,omitempty"`
}
