package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnencodable is returned by Write when msg cannot be serialized. Nothing
// has been written to w in that case.
var ErrUnencodable = errors.New("response cannot be encoded")

// Write serializes msg. Protocol errors travel in the body, so the status is
// always 200.
func Write(w http.ResponseWriter, msg *RPCResponse) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}

// WriteAck answers a notification with an empty body.
func WriteAck(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(""))
	return err
}
