package corestate

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UUIDLength is the size of the raw node identifier in bytes.
const UUIDLength = 16

// GetNodeUUID outputs the correct uuid from the file at the path specified in the arguments.
// If the uuid is not correct or is not exist, an empty string and an error will be returned.
// The path to the identifier must contain the path to the "uuid" directory,
// not the file with the identifier itself, for example: "uuid/data"
func GetNodeUUID(metaInfPath string) (string, error) {
	raw, err := readNodeUUIDRaw(filepath.Join(metaInfPath, "data"))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func readNodeUUIDRaw(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return data, err
	}
	if len(data) != UUIDLength {
		return data, errors.New("decoded UUID length mismatch")
	}
	return data, nil
}

// SetNodeUUID generates a new identifier under the given path.
// The function replaces the identifier's associated directory with all its contents.
func SetNodeUUID(metaInfPath string) error {
	if filepath.Base(metaInfPath) != "uuid" {
		return errors.New("invalid meta/uuid path")
	}
	if err := os.RemoveAll(metaInfPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(metaInfPath, 0755); err != nil {
		return err
	}

	id := uuid.New()
	if err := os.WriteFile(filepath.Join(metaInfPath, "data"), id[:], 0644); err != nil {
		return err
	}

	readme := strings.TrimSpace(`
This directory contains the unique node identifier stored in the file named data.
The identifier names the runtime directory and the run lock of this node.
Do not modify it while the node is running.`)
	return os.WriteFile(filepath.Join(metaInfPath, "README.txt"), []byte(readme+"\n"), 0644)
}

// LoadOrCreateNodeUUID returns the identifier under metaInfPath, generating
// one first when none exists.
func LoadOrCreateNodeUUID(metaInfPath string) (string, error) {
	id, err := GetNodeUUID(metaInfPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := SetNodeUUID(metaInfPath); err != nil {
			return "", err
		}
		return GetNodeUUID(metaInfPath)
	}
	return id, err
}
