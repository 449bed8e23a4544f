package lua

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt"
	lua "github.com/yuin/gopher-lua"
)

// loadJWTMod backs require("jwt"):
//
//	token, err = jwt.encode{secret=..., payload={...}, expires_in=seconds}
//	claims, err = jwt.decode(token, {secret=...})
func loadJWTMod(llog *slog.Logger) lua.LGFunction {
	return func(L *lua.LState) int {
		llog.Debug("import module jwt")
		jwtMod := L.NewTable()

		L.SetField(jwtMod, "encode", L.NewFunction(jwtEncode))
		L.SetField(jwtMod, "decode", L.NewFunction(jwtDecode))

		L.Push(jwtMod)
		return 1
	}
}

func jwtEncode(L *lua.LState) int {
	opts := L.CheckTable(1)
	secret := lua.LVAsString(L.GetField(opts, "secret"))
	if secret == "" {
		L.Push(lua.LNil)
		L.Push(lua.LString("secret is required"))
		return 2
	}
	expDuration := time.Hour
	if expiresIn, ok := L.GetField(opts, "expires_in").(lua.LNumber); ok {
		expDuration = time.Duration(float64(expiresIn) * float64(time.Second))
	}

	claims := jwt.MapClaims{}
	if payload, ok := L.GetField(opts, "payload").(*lua.LTable); ok {
		payloadFields, err := tableToMap(payload)
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString("payload: " + err.Error()))
			return 2
		}
		for k, v := range payloadFields {
			claims[k] = v
		}
	}
	now := time.Now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(expDuration).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(lua.LString(signedToken))
	return 1
}

func jwtDecode(L *lua.LState) int {
	tokenString := L.CheckString(1)
	opts := L.OptTable(2, L.NewTable())
	secret := lua.LVAsString(L.GetField(opts, "secret"))

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString("invalid token: " + err.Error()))
		return 2
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		L.Push(lua.LNil)
		L.Push(lua.LString("invalid token"))
		return 2
	}

	luaTable := L.NewTable()
	for k, v := range claims {
		luaTable.RawSetString(k, ConvertGolangTypesToLua(L, v))
	}

	L.Push(luaTable)
	return 1
}
