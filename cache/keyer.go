package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Keyer derives cache keys for downstream lookups.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a key from a namespace (usually the dependency name) and
	// the lookup arguments.
	Key(namespace string, args ...any) (string, error)
}

// DefaultKeyer hashes the MessagePack encoding of the arguments, with map
// keys sorted.
type DefaultKeyer struct {
	// Prefix is prepended to every key.
	// Default: "fanout"
	Prefix string
}

// NewDefaultKeyer creates a keyer with the default prefix.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{Prefix: "fanout"}
}

// Key returns <prefix>:<namespace>:<hash>, where hash is the first 16 hex
// characters of SHA-256 over the canonical encoding of args.
func (k *DefaultKeyer) Key(namespace string, args ...any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	for _, a := range args {
		if err := enc.Encode(a); err != nil {
			return "", fmt.Errorf("cache: encode key argument: %w", err)
		}
	}

	sum := sha256.Sum256(buf.Bytes())
	prefix := k.Prefix
	if prefix == "" {
		prefix = "fanout"
	}

	key := fmt.Sprintf("%s:%s:%s", prefix, namespace, hex.EncodeToString(sum[:8]))
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

var _ Keyer = (*DefaultKeyer)(nil)
