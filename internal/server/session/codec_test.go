package session

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCodec = New("test-secret")

func TestFunc_RoundTrip(t *testing.T) {
	tests := []map[string]any{
		{},
		{"foo": "bar"},
		{"user": "alice", "roles": []any{"admin", "instructor"}, "n": float64(3)},
		{"nested": map[string]any{"ok": true, "none": nil}},
		{"unicode": "привет"},
	}

	for _, tt := range tests {
		blob, err := testCodec.Encrypt(tt)
		require.NoError(t, err)

		got, err := testCodec.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, tt, got)
	}
}

func TestFunc_NilEncryptsAsEmpty(t *testing.T) {
	blob, err := testCodec.Encrypt(nil)
	require.NoError(t, err)

	got, err := testCodec.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)
}

func TestFunc_FreshIV(t *testing.T) {
	a, err := testCodec.Encrypt(map[string]any{"x": "y"})
	require.NoError(t, err)
	b, err := testCodec.Encrypt(map[string]any{"x": "y"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestFunc_Layout(t *testing.T) {
	blob, err := testCodec.Encrypt(map[string]any{"a": "b"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte(`{"a":"b"}`))
	assert.Equal(t, sum[:], raw[:digestSize])
	assert.Equal(t, 0, (len(raw)-digestSize-ivSize)%16)
}

func TestFunc_DecryptCorrupted(t *testing.T) {
	valid, err := testCodec.Encrypt(map[string]any{"user": "alice"})
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(valid)

	flip := func(i int) string {
		b := append([]byte(nil), raw...)
		b[i] ^= 0x01
		return base64.StdEncoding.EncodeToString(b)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%"},
		{"empty", ""},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 40))},
		{"partial block", base64.StdEncoding.EncodeToString(append(append([]byte(nil), raw...), 1))},
		{"flipped digest", flip(0)},
		{"flipped iv", flip(digestSize)},
		{"flipped ciphertext", flip(len(raw) - 1)},
		{"zero blob", base64.StdEncoding.EncodeToString(make([]byte, 80))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testCodec.Decrypt(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSessionCorrupted), err.Error())
			assert.Nil(t, got)
		})
	}
}

func TestFunc_OtherSecret(t *testing.T) {
	blob, err := testCodec.Encrypt(map[string]any{"user": "alice"})
	require.NoError(t, err)

	_, err = New("another-secret").Decrypt(blob)
	assert.ErrorIs(t, err, ErrSessionCorrupted)
}

func TestFunc_ConcurrentFirstUse(t *testing.T) {
	c := New("concurrent")
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			blob, err := c.Encrypt(map[string]any{"i": "x"})
			if err == nil {
				_, err = c.Decrypt(blob)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
