package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// LoadOrGenerateKey reads an Ed25519 seed from the given file, generating and
// persisting a fresh one on first run. Both services point at the same file
// so tokens issued by one verify in the other.
func LoadOrGenerateKey(path string) (ed25519.PrivateKey, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(path); err == nil {
		seed, err := base64.RawURLEncoding.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("jwtx: malformed key file %s: %w", path, err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("jwtx: key file %s has wrong seed size %d", path, len(seed))
		}
		return ed25519.NewKeyFromSeed(seed), nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	encoded := base64.RawURLEncoding.EncodeToString(seed)
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return nil, err
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
