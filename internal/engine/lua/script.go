package lua

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/service"
	lua "github.com/yuin/gopher-lua"
)

type script struct {
	name    string
	path    string
	proto   *lua.FunctionProto
	prepare *lua.FunctionProto
	engine  *Engine
}

// call runs the script in a fresh state. The script sees
//
//	In.Method, In.Params   the call
//	Session                mutable session table
//	Caller                 IsUser, IsSystem, Env
//	Out.Result, Out.Error  the answer
//	Log                    Info, Debug, Warn, Error
func (s *script) call(cc *service.CallContext, params []json.RawMessage) (any, error) {
	L := s.engine.pool.Get()
	defer s.engine.pool.Put(L)
	L.SetContext(cc.Context())

	paramsTable, err := decodeParams(L, params)
	if err != nil {
		return nil, rpc.Errorf(rpc.ErrInvalidParams, "%s", err)
	}

	inTable := L.NewTable()
	L.SetField(inTable, "Method", lua.LString(s.name))
	L.SetField(inTable, "Params", paramsTable)
	L.SetGlobal("In", inTable)

	L.SetGlobal("Session", ConvertGolangTypesToLua(L, cc.Session))

	callerTable := L.NewTable()
	L.SetField(callerTable, "IsUser", lua.LBool(cc.Caller.IsUser))
	L.SetField(callerTable, "IsSystem", lua.LBool(cc.Caller.IsSystem))
	L.SetField(callerTable, "Env", ConvertGolangTypesToLua(L, cc.Caller.Env))
	L.SetGlobal("Caller", callerTable)

	L.SetGlobal("Out", L.NewTable())
	L.SetGlobal("Log", s.logTable(L))

	if s.prepare != nil {
		if err := s.run(L, s.prepare); err != nil {
			return nil, err
		}
	}
	if err := s.run(L, s.proto); err != nil {
		return nil, err
	}

	sess, err := tableToMap(L.GetGlobal("Session"))
	if err != nil {
		return nil, s.conversionError("Session", err)
	}
	cc.Session = sess

	outTbl, ok := L.GetGlobal("Out").(*lua.LTable)
	if !ok {
		return nil, rpc.Errorf(rpc.ErrInternalError, "Out is not a table")
	}
	if errVal := outTbl.RawGetString("Error"); errVal != lua.LNil {
		return nil, s.scriptError(errVal)
	}
	result, err := ConvertLuaTypesToGolang(outTbl.RawGetString("Result"))
	if err != nil {
		return nil, s.conversionError("Out.Result", err)
	}
	return result, nil
}

// conversionError reports a value the script left behind that has no JSON
// form.
func (s *script) conversionError(field string, err error) error {
	s.engine.log.Error("the script produced an unconvertible value", slog.String("script", s.path), slog.String("field", field), slog.String("err", err.Error()))
	return &rpc.RPCError{
		Code:    rpc.ErrBackend,
		Message: fmt.Sprintf("%s: %s", field, err),
		Data:    map[string]any{"name": "LuaError"},
	}
}

func (s *script) run(L *lua.LState, proto *lua.FunctionProto) error {
	L.Push(L.NewFunctionFromProto(proto))
	err := L.PCall(0, lua.MultRet, nil)
	if err == nil {
		return nil
	}
	s.engine.log.Error("the script raised an error", slog.String("script", s.path), slog.String("err", err.Error()))

	data := map[string]any{"name": "LuaError"}
	msg := err.Error()
	if apiErr, ok := err.(*lua.ApiError); ok {
		msg = apiErr.Object.String()
		data["stack"] = apiErr.StackTrace
	}
	return &rpc.RPCError{Code: rpc.ErrBackend, Message: msg, Data: data}
}

// scriptError reads Out.Error: either a message or a table with code,
// message and data. A code that is not an integer is replaced by the generic
// backend code.
func (s *script) scriptError(v lua.LValue) error {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return &rpc.RPCError{Code: rpc.ErrBackend, Message: v.String()}
	}
	out := &rpc.RPCError{Code: rpc.ErrBackend, Message: "script error"}
	if c, ok := tbl.RawGetString("code").(lua.LNumber); ok {
		out.Code = errorCode(float64(c))
	}
	if msg, ok := tbl.RawGetString("message").(lua.LString); ok {
		out.Message = string(msg)
	}
	data, err := ConvertLuaTypesToGolang(tbl.RawGetString("data"))
	if err != nil {
		return s.conversionError("Out.Error.data", err)
	}
	if data, ok := data.(map[string]any); ok {
		out.Data = data
	}
	return out
}

func errorCode(c float64) int {
	if c != math.Trunc(c) || c < math.MinInt32 || c > math.MaxInt32 {
		return rpc.ErrBackend
	}
	return int(c)
}

func (s *script) logTable(L *lua.LState) *lua.LTable {
	logTable := L.NewTable()
	logFuncs := map[string]slog.Level{
		"Debug": slog.LevelDebug,
		"Info":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"Error": slog.LevelError,
	}
	for name, level := range logFuncs {
		L.SetField(logTable, name, L.NewFunction(func(L *lua.LState) int {
			msg := L.ToString(1)
			s.engine.log.Log(L.Context(), level, fmt.Sprintf("the script says: %s", msg), slog.String("script", s.path))
			return 0
		}))
	}
	return logTable
}
