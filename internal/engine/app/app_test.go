package app

import (
	"context"
	"errors"
	"testing"

	"github.com/cmpt-474-edu-monitor/sdk/internal/core/corestate"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_RunOrder(t *testing.T) {
	a := New(config.NewCompositor())
	var trace []string

	a.InitialHooks(
		func(cs *corestate.CoreState, x *AppX) error {
			trace = append(trace, "init1")
			cs.Stage = corestate.StagePreInit
			return nil
		},
		func(cs *corestate.CoreState, x *AppX) error {
			trace = append(trace, "init2:"+string(cs.Stage))
			return nil
		},
	)
	a.Fallback(func(ctx context.Context, cs *corestate.CoreState, x *AppX) {
		trace = append(trace, "fallback")
	})

	err := a.Run(func(ctx context.Context, cs *corestate.CoreState, x *AppX) error {
		trace = append(trace, "run")
		a.CallFallback(ctx)
		a.CallFallback(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"init1", "init2:pre-init", "run", "fallback"}, trace)
}

func TestFunc_RunFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		init InitHook
		run  RunHook
		ran  bool
	}{
		{
			name: "init error",
			init: func(*corestate.CoreState, *AppX) error { return boom },
		},
		{
			name: "run error",
			init: func(*corestate.CoreState, *AppX) error { return nil },
			run:  func(context.Context, *corestate.CoreState, *AppX) error { return boom },
			ran:  true,
		},
		{
			name: "run panic",
			init: func(*corestate.CoreState, *AppX) error { return nil },
			run:  func(context.Context, *corestate.CoreState, *AppX) error { panic(boom) },
			ran:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(config.NewCompositor())
			fallbacks := 0
			ran := false
			a.InitialHooks(tt.init)
			a.Fallback(func(context.Context, *corestate.CoreState, *AppX) { fallbacks++ })

			err := a.Run(func(ctx context.Context, cs *corestate.CoreState, x *AppX) error {
				ran = true
				if tt.run == nil {
					t.Fatal("run hook must not be reached")
				}
				return tt.run(ctx, cs, x)
			})
			assert.Error(t, err)
			assert.Equal(t, 1, fallbacks)
			assert.Equal(t, tt.ran, ran)
		})
	}
}
