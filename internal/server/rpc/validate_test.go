package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_Validate(t *testing.T) {
	tests := []struct {
		body    string
		wantErr string
	}{
		{`{"id":1,"method":"Math::add","params":[2,3]}`, ""},
		{`{"id":"abc","method":"Math::add"}`, ""},
		{`{"id":null,"method":"Math::add","params":{"a":1}}`, ""},
		{`{"method":"Math::add","session":"xyz"}`, ""},
		{`{"id":true,"method":"Math::add"}`, "id is not a string, number, or null"},
		{`{"id":{},"method":"Math::add"}`, "id is not a string, number, or null"},
		{`{"id":1,"method":5}`, "method is not a string"},
		{`{"id":1}`, "method is not a string"},
		{`{"id":1,"method":"add"}`, "a namespace is required"},
		{`{"id":1,"method":"::add"}`, "a namespace is required"},
		{`{"id":1,"method":"Ma-th::add"}`, "illegal namespace: Ma-th"},
		{`{"id":1,"method":"Math::"}`, "illegal method: "},
		{`{"id":1,"method":"Math::a::b"}`, "illegal method: a::b"},
		{`{"id":1,"method":"Math::add","params":"x"}`, "params is not an object or array"},
		{`{"id":1,"method":"Math::add","params":3}`, "params is not an object or array"},
		{`{"id":1,"method":"Math::add","session":3}`, "session is not a string"},
		{`[1,2]`, "method is not a string"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			req, err := Parse([]byte(tt.body), false)
			require.NoError(t, err)

			err = Validate(req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, ErrInvalidRequest, CodeOf(err))
			assert.Equal(t, tt.wantErr, err.(*RPCError).Message)
		})
	}
}

func TestFunc_SplitMethod(t *testing.T) {
	ns, name, err := SplitMethod("Math::add_two")
	require.NoError(t, err)
	assert.Equal(t, "Math", ns)
	assert.Equal(t, "add_two", name)
}

func TestFunc_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		encoded bool
	}{
		{"truncated", `{"id":1,"method":`, false},
		{"garbage", `not json`, false},
		{"empty", ``, false},
		{"bad base64", `%%%`, true},
		{"base64 of garbage", "bm90IGpzb24=", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body), tt.encoded)
			require.Error(t, err)
			assert.Equal(t, ErrParseError, CodeOf(err))
		})
	}
}

func TestFunc_ParseEncoded(t *testing.T) {
	// {"id":7,"method":"A::b"}
	req, err := Parse([]byte("eyJpZCI6NywibWV0aG9kIjoiQTo6YiJ9"), true)
	require.NoError(t, err)
	require.NoError(t, Validate(req))
	assert.Equal(t, "A::b", req.MethodName())
	assert.Equal(t, json.RawMessage("7"), req.ResponseID())
}

func TestFunc_RequestAccessors(t *testing.T) {
	t.Run("notification", func(t *testing.T) {
		req, err := Parse([]byte(`{"method":"A::b"}`), false)
		require.NoError(t, err)
		assert.True(t, req.IsNotification())
		assert.Nil(t, req.ResponseID())
	})

	t.Run("null id is not a notification", func(t *testing.T) {
		req, err := Parse([]byte(`{"id":null,"method":"A::b"}`), false)
		require.NoError(t, err)
		assert.False(t, req.IsNotification())
	})

	t.Run("object params are promoted", func(t *testing.T) {
		req, err := Parse([]byte(`{"method":"A::b","params":{"x":1}}`), false)
		require.NoError(t, err)
		params, err := req.PositionalParams()
		require.NoError(t, err)
		require.Len(t, params, 1)
		assert.JSONEq(t, `{"x":1}`, string(params[0]))
	})

	t.Run("absent params are empty", func(t *testing.T) {
		req, err := Parse([]byte(`{"method":"A::b"}`), false)
		require.NoError(t, err)
		params, err := req.PositionalParams()
		require.NoError(t, err)
		assert.Empty(t, params)
		assert.NotNil(t, params)
	})

	t.Run("session", func(t *testing.T) {
		req, err := Parse([]byte(`{"method":"A::b","session":"blob"}`), false)
		require.NoError(t, err)
		s, ok := req.SessionBlob()
		assert.True(t, ok)
		assert.Equal(t, "blob", s)

		req, err = Parse([]byte(`{"method":"A::b","session":null}`), false)
		require.NoError(t, err)
		_, ok = req.SessionBlob()
		assert.False(t, ok)
	})
}
