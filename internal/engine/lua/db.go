package lua

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	lua "github.com/yuin/gopher-lua"
	_ "modernc.org/sqlite"
)

const dbTypeName = "edumonitor_db"

// dbRegistry shares one handle per database path across scripts. Writes to
// a path are serialized, reads may run alongside each other.
type dbRegistry struct {
	mu  sync.Mutex
	dbs map[string]*dbHandle
}

type dbHandle struct {
	db *sql.DB
	mu sync.RWMutex
}

func newDBRegistry() *dbRegistry {
	return &dbRegistry{dbs: make(map[string]*dbHandle)}
}

func (r *dbRegistry) open(path string) (*dbHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.dbs[path]; ok {
		return h, nil
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	h := &dbHandle{db: db}
	r.dbs[path] = h
	return h, nil
}

func (r *dbRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for path, h := range r.dbs {
		if err := h.db.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", path, err)
		}
		delete(r.dbs, path)
	}
	return first
}

type DBConnection struct {
	dbPath string
	log    bool
	logger *slog.Logger
	handle *dbHandle
	closed bool
}

// loadDBMod backs require("db"):
//
//	conn, err = db.connect(path, {log=true})
//	affected, err = conn:exec(query, {params...})
//	rows, err = conn:query(query, {params...})
//	conn:close()
func loadDBMod(llog *slog.Logger, registry *dbRegistry) lua.LGFunction {
	return func(L *lua.LState) int {
		llog.Debug("import module db-sqlite")
		dbMod := L.NewTable()

		mt := L.NewTypeMetatable(dbTypeName)
		L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"exec":  dbExec,
			"query": dbQuery,
			"close": dbClose,
		}))

		L.SetField(dbMod, "connect", L.NewFunction(func(L *lua.LState) int {
			dbPath := L.CheckString(1)
			logQueries := false
			if opts, ok := L.Get(2).(*lua.LTable); ok {
				logQueries = lua.LVAsBool(opts.RawGetString("log"))
			}

			h, err := registry.open(dbPath)
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}

			ud := L.NewUserData()
			ud.Value = &DBConnection{
				dbPath: dbPath,
				log:    logQueries,
				logger: llog,
				handle: h,
			}
			L.SetMetatable(ud, L.GetTypeMetatable(dbTypeName))
			L.Push(ud)
			return 1
		}))

		L.Push(dbMod)
		return 1
	}
}

func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func checkConn(L *lua.LState) (*DBConnection, bool) {
	ud := L.CheckUserData(1)
	conn, ok := ud.Value.(*DBConnection)
	if !ok {
		L.Push(lua.LNil)
		L.Push(lua.LString("invalid database connection"))
		return nil, false
	}
	if conn.closed {
		L.Push(lua.LNil)
		L.Push(lua.LString("database connection is closed"))
		return nil, false
	}
	return conn, true
}

func queryArgs(L *lua.LState) ([]any, error) {
	params, ok := L.Get(3).(*lua.LTable)
	if !ok {
		return nil, nil
	}
	args := make([]any, 0, params.Len())
	for i := 1; i <= params.Len(); i++ {
		arg, err := ConvertLuaTypesToGolang(params.RawGetInt(i))
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		args = append(args, arg)
	}
	return args, nil
}

func dbExec(L *lua.LState) int {
	conn, ok := checkConn(L)
	if !ok {
		return 2
	}
	query := L.CheckString(2)
	args, err := queryArgs(L)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	if conn.log {
		conn.logger.Info("DB Exec",
			slog.String("query", query),
			slog.Any("params", args))
	}

	conn.handle.mu.Lock()
	res, err := conn.handle.db.ExecContext(stateContext(L), query, args...)
	conn.handle.mu.Unlock()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	rows, _ := res.RowsAffected()
	L.Push(lua.LNumber(rows))
	return 1
}

func dbQuery(L *lua.LState) int {
	conn, ok := checkConn(L)
	if !ok {
		return 2
	}
	query := L.CheckString(2)
	args, err := queryArgs(L)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	if conn.log {
		conn.logger.Info("DB Query",
			slog.String("query", query),
			slog.Any("params", args))
	}

	conn.handle.mu.RLock()
	defer conn.handle.mu.RUnlock()

	rows, err := conn.handle.db.QueryContext(stateContext(L), query, args...)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("query failed: %v", err)))
		return 2
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("get columns failed: %v", err)))
		return 2
	}

	result := L.NewTable()
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(fmt.Sprintf("scan failed: %v", err)))
			return 2
		}

		rowTable := L.NewTable()
		for i, col := range columns {
			L.SetField(rowTable, col, ConvertGolangTypesToLua(L, values[i]))
		}
		result.Append(rowTable)
	}

	if err := rows.Err(); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("rows iteration failed: %v", err)))
		return 2
	}

	L.Push(result)
	return 1
}

// dbClose only detaches the connection from the script; the shared handle
// stays open until the engine is closed.
func dbClose(L *lua.LState) int {
	ud := L.CheckUserData(1)
	conn, ok := ud.Value.(*DBConnection)
	if !ok {
		L.Push(lua.LFalse)
		L.Push(lua.LString("invalid database connection"))
		return 2
	}
	conn.closed = true
	L.Push(lua.LTrue)
	return 1
}
