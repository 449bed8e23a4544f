package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCompositor() *Compositor {
	return &Compositor{}
}

func (c *Compositor) LoadEnv() error {
	v := viper.New()

	// defaults
	v.SetDefault("config_path", "./config.yaml")
	v.SetDefault("node_path", "./")
	v.SetDefault("session_secret", "")

	// GS_*
	v.SetEnvPrefix("GS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("session_secret", "GS_SESSION_SECRET", "CRYPTO_PASSWORD"); err != nil {
		return fmt.Errorf("error binding env: %w", err)
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return fmt.Errorf("error unmarshaling env: %w", err)
	}

	c.Env = &env
	return nil
}

func (c *Compositor) LoadConf(path string) error {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// defaults
	v.SetDefault("node.name", "noname")
	v.SetDefault("node.mode", "dev")
	v.SetDefault("node.show_config", "false")
	v.SetDefault("http_server.address", "0.0.0.0")
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("http_server.timeout", "5s")
	v.SetDefault("http_server.idle_timeout", "60s")
	v.SetDefault("http_server.max_connections", 100)
	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.cert_file", "./cert/server.crt")
	v.SetDefault("tls.key_file", "./cert/server.key")
	v.SetDefault("log.json_format", "false")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "%2%")
	v.SetDefault("session.secret", "")
	v.SetDefault("gateway.route", "/rpc")
	v.SetDefault("gateway.target_prefix", "EduMonitor_")
	v.SetDefault("gateway.expose_stack", false)
	v.SetDefault("gateway.caller_env", map[string]string{})
	v.SetDefault("gateway.namespaces", []map[string]any{})
	v.SetDefault("service.route", "/invoke")
	v.SetDefault("service.scripts", "./interfaces/")
	v.SetDefault("service.address", "0.0.0.0")
	v.SetDefault("service.port", "8081")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.idle_ttl", "10m")
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.interval", "0s")
	v.SetDefault("disable_warnings", []string{})

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}

	var cfg Conf
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Gateway.Namespaces == nil {
		cfg.Gateway.Namespaces = &[]Namespace{}
	}
	if err := validateNamespaces(*cfg.Gateway.Namespaces); err != nil {
		return err
	}

	c.Conf = &cfg
	return nil
}

func validateNamespaces(namespaces []Namespace) error {
	seen := make(map[string]struct{}, len(namespaces))
	for i, ns := range namespaces {
		if ns.Name == "" {
			return fmt.Errorf("gateway.namespaces[%d]: name is required", i)
		}
		if !rpc.IdentifierPattern.MatchString(ns.Name) {
			return fmt.Errorf("gateway.namespaces[%d]: illegal namespace: %s", i, ns.Name)
		}
		if _, dup := seen[ns.Name]; dup {
			return fmt.Errorf("gateway.namespaces[%d]: duplicate namespace: %s", i, ns.Name)
		}
		seen[ns.Name] = struct{}{}
		switch ns.Kind {
		case KindLua:
			if ns.Scripts == "" {
				return fmt.Errorf("namespace %s: lua namespaces need scripts", ns.Name)
			}
		case KindHTTP:
			if ns.URL == "" {
				return fmt.Errorf("namespace %s: http namespaces need url", ns.Name)
			}
		default:
			return fmt.Errorf("namespace %s: unknown kind %q", ns.Name, ns.Kind)
		}
	}
	return nil
}

// SessionSecret resolves the session password: environment first, then the
// config file, then DefaultSessionSecret. isDefault reports the fallback.
func (c *Compositor) SessionSecret() (secret string, isDefault bool) {
	if c.Env != nil && c.Env.SessionSecret != nil && *c.Env.SessionSecret != "" {
		return *c.Env.SessionSecret, false
	}
	if c.Conf != nil && c.Conf.Session != nil && c.Conf.Session.Secret != nil && *c.Conf.Session.Secret != "" {
		return *c.Conf.Session.Secret, false
	}
	return DefaultSessionSecret, true
}

func (c *Compositor) LoadCMDLine(root *cobra.Command) {
	cmdLine := &CMDLine{}
	c.CMDLine = cmdLine

	t := reflect.TypeOf(cmdLine).Elem()
	v := reflect.ValueOf(cmdLine).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		ptr := fieldVal.Addr().Interface()
		use := strings.ToLower(field.Name)

		var cmd *cobra.Command
		for _, sub := range root.Commands() {
			if strings.Fields(sub.Use)[0] == use {
				cmd = sub
				break
			}
		}

		if use == root.Use {
			cmd = root
		}

		if cmd == nil {
			continue
		}

		Unmarshal(cmd, ptr)
	}
}

func Unmarshal(cmd *cobra.Command, target any) {
	t := reflect.TypeOf(target).Elem()
	v := reflect.ValueOf(target).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		valPtr := v.Field(i).Addr().Interface()

		full := field.Tag.Get("full")
		short := field.Tag.Get("short")
		def := field.Tag.Get("def")
		desc := field.Tag.Get("desc")
		isPersistent := field.Tag.Get("persistent") == "true"

		flagSet := cmd.Flags()
		if isPersistent {
			flagSet = cmd.PersistentFlags()
		}

		switch field.Type.Kind() {
		case reflect.String:
			flagSet.StringVarP(valPtr.(*string), full, short, def, desc)

		case reflect.Bool:
			defVal, err := strconv.ParseBool(def)
			if err != nil && def != "" {
				fmt.Printf("warning: cannot parse default bool: %q\n", def)
			}
			flagSet.BoolVarP(valPtr.(*bool), full, short, defVal, desc)

		case reflect.Int:
			defVal, err := strconv.Atoi(def)
			if err != nil && def != "" {
				fmt.Printf("warning: cannot parse default int: %q\n", def)
			}
			flagSet.IntVarP(valPtr.(*int), full, short, defVal, desc)

		case reflect.Slice:
			if field.Type.Elem().Kind() != reflect.String {
				fmt.Printf("unsupported slice element type: %s\n", field.Type.Elem().Kind())
				continue
			}
			defVals := []string{}
			if def != "" {
				defVals = strings.Split(def, ",")
			}
			flagSet.StringSliceVarP(valPtr.(*[]string), full, short, defVals, desc)

		default:
			fmt.Printf("unsupported field type: %s\n", field.Type.Kind())
		}
	}
}
