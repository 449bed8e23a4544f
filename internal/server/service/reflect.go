package service

import (
	"encoding/json"
	"reflect"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/juju/errors"
)

var (
	callContextType = reflect.TypeOf((*CallContext)(nil))
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

// bind turns fn into a HandlerFunc. Accepted result forms:
//
//	F(cc, ...)
//	F(cc, ...) R
//	F(cc, ...) error
//	F(cc, ...) (R, error)
func bind(fn any, receiver any) (HandlerFunc, error) {
	if fn == nil {
		return nil, errors.NotValidf("nil handler")
	}
	if receiver == nil {
		switch h := fn.(type) {
		case HandlerFunc:
			return h, nil
		case func(*CallContext, []json.RawMessage) (any, error):
			return h, nil
		}
	}

	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, errors.NotValidf("handler of type %T", fn)
	}

	var bound []reflect.Value
	first := 0
	if receiver != nil {
		rv := reflect.ValueOf(receiver)
		if t.NumIn() == 0 || !rv.Type().AssignableTo(t.In(0)) {
			return nil, errors.Errorf("receiver %T does not match the first parameter of %s", receiver, t)
		}
		bound = append(bound, rv)
		first = 1
	}
	if t.NumIn() <= first || t.In(first) != callContextType {
		return nil, errors.Errorf("%s must take *service.CallContext as its first argument", t)
	}
	first++

	hasResult, hasError := false, false
	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			hasError = true
		} else {
			hasResult = true
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, errors.Errorf("second result of %s must be error", t)
		}
		hasResult, hasError = true, true
	default:
		return nil, errors.Errorf("%s returns too many values", t)
	}

	nargs := t.NumIn() - first
	variadic := t.IsVariadic()

	return func(cc *CallContext, params []json.RawMessage) (any, error) {
		args := make([]reflect.Value, 0, len(bound)+1+len(params))
		args = append(args, bound...)
		args = append(args, reflect.ValueOf(cc))

		for i := 0; i < nargs; i++ {
			argType := t.In(first + i)
			if variadic && i == nargs-1 {
				for j := i; j < len(params); j++ {
					arg, err := decodeParam(j, params[j], argType.Elem())
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
				}
				break
			}
			var raw json.RawMessage
			if i < len(params) {
				raw = params[i]
			}
			arg, err := decodeParam(i, raw, argType)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}

		outs := v.Call(args)

		if hasError {
			if e := outs[len(outs)-1].Interface(); e != nil {
				return nil, e.(error)
			}
		}
		if hasResult {
			return outs[0].Interface(), nil
		}
		return nil, nil
	}, nil
}

// decodeParam decodes one positional param. A missing param leaves the
// zero value.
func decodeParam(i int, raw json.RawMessage, typ reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(typ)
	if len(raw) == 0 {
		return ptr.Elem(), nil
	}
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, rpc.Errorf(rpc.ErrInvalidParams, "param %d: %s", i, err)
	}
	return ptr.Elem(), nil
}
