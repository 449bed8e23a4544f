// Package lua serves gateway interfaces written as Lua scripts. Every
// <name>.lua in an interface directory becomes interface <name> of a
// service.Builder; the script reads its call from In, Session and Caller and
// answers through Out.
package lua

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/service"
	"github.com/juju/errors"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// PrepareScript runs before every interface script of its directory.
const PrepareScript = "_prepare.lua"

type Engine struct {
	log  *slog.Logger
	pool *LuaPool
	dbs  *dbRegistry
}

func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		log: log,
		dbs: newDBRegistry(),
	}
	e.pool = NewLuaPool(func(L *lua.LState) {
		L.PreloadModule("jwt", loadJWTMod(e.log))
		L.PreloadModule("db", loadDBMod(e.log, e.dbs))
	})
	return e
}

// Close releases the databases opened by scripts.
func (e *Engine) Close() error {
	return e.dbs.Close()
}

// LoadInterfaces builds interfaces from dir with a fresh Engine.
func LoadInterfaces(dir string, log *slog.Logger) (*service.Builder, error) {
	return NewEngine(log).LoadInterfaces(dir)
}

// LoadInterfaces compiles every script in dir and registers it. Files whose
// name starts with an underscore are helpers, not interfaces, and so are
// names that are not valid identifiers.
func (e *Engine) LoadInterfaces(dir string) (*service.Builder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Annotatef(err, "read interfaces from %s", dir)
	}

	var prepare *lua.FunctionProto
	if _, err := os.Stat(filepath.Join(dir, PrepareScript)); err == nil {
		prepare, err = compile(filepath.Join(dir, PrepareScript))
		if err != nil {
			return nil, errors.Trace(err)
		}
	}

	b := service.NewBuilder()
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		fname := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(fname, ".lua") || strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, ".lua")
		if !rpc.IdentifierPattern.MatchString(name) {
			e.log.Warn("skipping script with illegal interface name", slog.String("file", fname))
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name+".lua")
		proto, err := compile(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		s := &script{
			name:    name,
			path:    path,
			proto:   proto,
			prepare: prepare,
			engine:  e,
		}
		b.AddInterface(name, service.HandlerFunc(s.call), nil)
		e.log.Debug("interface loaded", slog.String("interface", name), slog.String("script", path))
	}
	return b, nil
}

func compile(path string) (*lua.FunctionProto, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	chunk, err := parse.Parse(f, path)
	if err != nil {
		return nil, errors.Annotatef(err, "parse %s", path)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, errors.Annotatef(err, "compile %s", path)
	}
	return proto, nil
}
