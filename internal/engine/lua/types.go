package lua

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/juju/errors"
	lua "github.com/yuin/gopher-lua"
)

// ErrCyclicTable is returned for a table that contains itself.
var ErrCyclicTable = errors.New("table refers to itself")

// MaxTableDepth bounds the nesting of tables converted to Go values.
const MaxTableDepth = 100

// ConvertLuaTypesToGolang maps a Lua value onto the JSON data model. A table
// whose keys are exactly 1..n is an array, any other non-empty table an
// object. The empty table is an empty object. Tables that contain themselves
// or nest deeper than MaxTableDepth are rejected.
func ConvertLuaTypesToGolang(value lua.LValue) (any, error) {
	return toGolang(value, make(map[*lua.LTable]struct{}))
}

// path holds the tables between the root and the value being converted, so a
// table shared by two fields is fine and only a loop back to an ancestor is not.
func toGolang(value lua.LValue, path map[*lua.LTable]struct{}) (any, error) {
	switch value.Type() {
	case lua.LTString:
		return value.String(), nil
	case lua.LTNumber:
		return float64(value.(lua.LNumber)), nil
	case lua.LTBool:
		return bool(value.(lua.LBool)), nil
	case lua.LTTable:
		tbl := value.(*lua.LTable)
		if _, ok := path[tbl]; ok {
			return nil, ErrCyclicTable
		}
		if len(path) >= MaxTableDepth {
			return nil, errors.Errorf("tables nested deeper than %d", MaxTableDepth)
		}
		path[tbl] = struct{}{}
		defer delete(path, tbl)

		if n := tbl.MaxN(); n > 0 && n == tableSize(tbl) {
			arr := make([]any, n)
			for i := 1; i <= n; i++ {
				v, err := toGolang(tbl.RawGetInt(i), path)
				if err != nil {
					return nil, err
				}
				arr[i-1] = v
			}
			return arr, nil
		}
		return fields(tbl, path)
	case lua.LTNil:
		return nil, nil
	default:
		return value.String(), nil
	}
}

func fields(tbl *lua.LTable, path map[*lua.LTable]struct{}) (map[string]any, error) {
	result := make(map[string]any)
	var err error
	tbl.ForEach(func(key, val lua.LValue) {
		if err != nil {
			return
		}
		result[key.String()], err = toGolang(val, path)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func tableSize(tbl *lua.LTable) int {
	n := 0
	tbl.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}

// tableToMap converts a table used as an object. Anything that is not a
// table yields an empty map.
func tableToMap(value lua.LValue) (map[string]any, error) {
	tbl, ok := value.(*lua.LTable)
	if !ok {
		return map[string]any{}, nil
	}
	return fields(tbl, map[*lua.LTable]struct{}{tbl: {}})
}

func ConvertGolangTypesToLua(L *lua.LState, val any) lua.LValue {
	switch v := val.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case []byte:
		return lua.LString(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return lua.LString(v.String())
		}
		return lua.LNumber(f)
	case time.Time:
		return lua.LString(v.Format(time.RFC3339Nano))
	}

	rv := reflect.ValueOf(val)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())

	case reflect.Slice, reflect.Array:
		tbl := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			tbl.RawSetInt(i+1, ConvertGolangTypesToLua(L, rv.Index(i).Interface()))
		}
		return tbl

	case reflect.Map:
		if rt.Key().Kind() != reflect.String {
			break
		}
		tbl := L.NewTable()
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, key := range keys {
			tbl.RawSetString(key.String(), ConvertGolangTypesToLua(L, rv.MapIndex(key).Interface()))
		}
		return tbl

	case reflect.Ptr:
		if rv.IsNil() {
			return lua.LNil
		}
		return ConvertGolangTypesToLua(L, rv.Elem().Interface())
	}
	return lua.LString(fmt.Sprintf("%v", val))
}

// decodeParams turns raw positional params into a 1-based Lua array.
func decodeParams(L *lua.LState, params []json.RawMessage) (*lua.LTable, error) {
	tbl := L.NewTable()
	for i, raw := range params {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		tbl.RawSetInt(i+1, ConvertGolangTypesToLua(L, v))
	}
	return tbl, nil
}
