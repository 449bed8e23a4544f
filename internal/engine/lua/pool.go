package lua

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// LuaPool hands out ready states. A state is never reused: Put closes it
// and refills the pool with a fresh one, so no globals leak between calls.
type LuaPool struct {
	pool  sync.Pool
	setup func(L *lua.LState)
}

func NewLuaPool(setup func(L *lua.LState)) *LuaPool {
	lp := &LuaPool{setup: setup}
	lp.pool.New = func() any {
		return lp.newState()
	}
	return lp
}

func (lp *LuaPool) newState() *lua.LState {
	L := lua.NewState()
	if lp.setup != nil {
		lp.setup(L)
	}
	return L
}

func (lp *LuaPool) Get() *lua.LState {
	return lp.pool.Get().(*lua.LState)
}

func (lp *LuaPool) Put(L *lua.LState) {
	L.Close()
	lp.pool.Put(lp.newState())
}
