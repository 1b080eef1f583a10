package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// Config is the top-level manifest of a connector server.
type Config struct {
	Server     Server      `toml:"server"`
	Dispatch   Dispatch    `toml:"dispatch"`
	Log        Log         `toml:"log"`
	Connectors []Connector `toml:"connector"`
}

type Server struct {
	Service string `toml:"service"`
	Listen  string `toml:"listen"`
}

type Dispatch struct {
	Mode         string `toml:"mode"`   // "dynamic" | "static"
	Prefix       string `toml:"prefix"` // default "/csp"
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	TimeoutMS    int64  `toml:"timeout_ms"` // 0 = no deadline
}

type Log struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"` // debug | info | warn | error
}

// Connector toggles one compiled-in connector module. Modules without an
// entry are enabled.
type Connector struct {
	Name      string `toml:"name"`
	Enabled   *bool  `toml:"enabled"`
	LogBodies bool   `toml:"log_bodies"`
}

// Default is used when no manifest file exists.
func Default() Config {
	c := Config{}
	_ = c.Validate()
	return c
}

// Validate fills defaults and checks values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Service) == "" {
		c.Server.Service = "csp"
	}
	if strings.TrimSpace(c.Server.Listen) == "" {
		c.Server.Listen = ":8080"
	}

	c.Dispatch.Mode = strings.ToLower(strings.TrimSpace(c.Dispatch.Mode))
	switch c.Dispatch.Mode {
	case "":
		c.Dispatch.Mode = "dynamic"
	case "dynamic", "static":
	default:
		return fmt.Errorf("dispatch.mode %q invalid", c.Dispatch.Mode)
	}
	p := strings.TrimSpace(c.Dispatch.Prefix)
	if p == "" {
		p = "/csp"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if p == "/" || strings.ContainsAny(p, "{}") {
		return fmt.Errorf("dispatch.prefix %q invalid", c.Dispatch.Prefix)
	}
	c.Dispatch.Prefix = p
	if c.Dispatch.MaxBodyBytes < 0 {
		return errors.New("dispatch.max_body_bytes must be >= 0")
	}
	if c.Dispatch.MaxBodyBytes == 0 {
		c.Dispatch.MaxBodyBytes = 1 << 20
	}
	if c.Dispatch.TimeoutMS < 0 {
		return errors.New("dispatch.timeout_ms must be >= 0")
	}

	if strings.TrimSpace(c.Log.Dir) == "" {
		c.Log.Dir = "log"
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "":
		c.Log.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q invalid", c.Log.Level)
	}

	seen := map[string]struct{}{}
	for i := range c.Connectors {
		n := strings.TrimSpace(c.Connectors[i].Name)
		if n == "" {
			return fmt.Errorf("connector %d: name is required", i)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("connector %q listed twice", n)
		}
		seen[n] = struct{}{}
		c.Connectors[i].Name = n
	}
	return nil
}

func (d Dispatch) Timeout() time.Duration {
	return time.Duration(d.TimeoutMS) * time.Millisecond
}

// Enabled reports whether the module called name should be bootstrapped.
func (c Config) Enabled(name string) bool {
	for _, cn := range c.Connectors {
		if cn.Name == name {
			return cn.Enabled == nil || *cn.Enabled
		}
	}
	return true
}

// BodyLogPrefixes returns the route prefixes whose request bodies may be
// written to the access log.
func (c Config) BodyLogPrefixes() []string {
	var out []string
	for _, cn := range c.Connectors {
		if cn.LogBodies && c.Enabled(cn.Name) {
			out = append(out, c.Dispatch.Prefix+"/"+cn.Name)
		}
	}
	return out
}
