// Package config provides configuration management for the node.
// Values are composed from the environment, a YAML file and the command
// line; config is built on top of viper and cobra.
package config

import (
	"time"
)

type CompositorContract interface {
	LoadEnv() error
	LoadConf(path string) error
}

type Compositor struct {
	CMDLine *CMDLine
	Conf    *Conf
	Env     *Env
}

type Conf struct {
	Node            *Node       `mapstructure:"node"`
	HTTPServer      *HTTPServer `mapstructure:"http_server"`
	TLS             *TLS        `mapstructure:"tls"`
	Log             *Log        `mapstructure:"log"`
	Session         *Session    `mapstructure:"session"`
	Gateway         *Gateway    `mapstructure:"gateway"`
	Service         *Service    `mapstructure:"service"`
	RateLimit       *RateLimit  `mapstructure:"rate_limit"`
	Breaker         *Breaker    `mapstructure:"breaker"`
	DisableWarnings *[]string   `mapstructure:"disable_warnings"`
}

type Node struct {
	Mode       *string `mapstructure:"mode"`
	Name       *string `mapstructure:"name"`
	ShowConfig *bool   `mapstructure:"show_config"`
}

type HTTPServer struct {
	Address        *string        `mapstructure:"address"`
	Port           *string        `mapstructure:"port"`
	Timeout        *time.Duration `mapstructure:"timeout"`
	IdleTimeout    *time.Duration `mapstructure:"idle_timeout"`
	MaxConnections *int           `mapstructure:"max_connections"`
}

type TLS struct {
	TlsEnabled *bool   `mapstructure:"enabled"`
	CertFile   *string `mapstructure:"cert_file"`
	KeyFile    *string `mapstructure:"key_file"`
}

type Log struct {
	JSON    *bool   `mapstructure:"json_format"`
	Level   *string `mapstructure:"level"`
	OutPath *string `mapstructure:"output"`
}

type Session struct {
	// Secret is the password the session key is derived from. GS_SESSION_SECRET
	// and CRYPTO_PASSWORD take precedence.
	Secret *string `mapstructure:"secret"`
}

type Gateway struct {
	Route        *string `mapstructure:"route"`
	TargetPrefix *string `mapstructure:"target_prefix"`
	ExposeStack  *bool   `mapstructure:"expose_stack"`
	// CallerEnv keys are lower cased by the config loader.
	CallerEnv  *map[string]string `mapstructure:"caller_env"`
	Namespaces *[]Namespace       `mapstructure:"namespaces"`
}

// Namespace kinds.
const (
	KindLua  = "lua"
	KindHTTP = "http"
)

// Namespace binds a gateway namespace to a backend. A lua namespace is
// served in process from Scripts; an http namespace is forwarded to URL.
type Namespace struct {
	Name    string        `mapstructure:"name"`
	Kind    string        `mapstructure:"kind"`
	Scripts string        `mapstructure:"scripts"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Service configures the standalone service host started by "node service".
type Service struct {
	Route   *string `mapstructure:"route"`
	Scripts *string `mapstructure:"scripts"`
	Address *string `mapstructure:"address"`
	Port    *string `mapstructure:"port"`
}

type RateLimit struct {
	Enabled *bool          `mapstructure:"enabled"`
	RPS     *float64       `mapstructure:"rps"`
	Burst   *int           `mapstructure:"burst"`
	IdleTTL *time.Duration `mapstructure:"idle_ttl"`
}

type Breaker struct {
	MaxFailures *uint32        `mapstructure:"max_failures"`
	Timeout     *time.Duration `mapstructure:"timeout"`
	Interval    *time.Duration `mapstructure:"interval"`
}

// Env structure for environment variables
type Env struct {
	ConfigPath    *string `mapstructure:"config_path"`
	NodePath      *string `mapstructure:"node_path"`
	SessionSecret *string `mapstructure:"session_secret"`
}

type CMDLine struct {
	Node Root
	Call Call
}

type Root struct {
	Debug      bool   `persistent:"true" full:"debug" short:"d" def:"false" desc:"Set debug mode"`
	ConfigPath string `persistent:"true" full:"config" short:"c" def:"" desc:"Path to configuration file"`
}

type Call struct {
	URL     string `full:"url" short:"u" def:"http://localhost:8080/rpc" desc:"Gateway endpoint"`
	Session string `full:"session" short:"s" def:"" desc:"Session blob to send with the call"`
	Timeout int    `full:"timeout" short:"t" def:"10" desc:"Call timeout in seconds"`
}
