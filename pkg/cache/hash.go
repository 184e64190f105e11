package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key derives a cache key from a namespace prefix and the values that make
// a cached artifact unique (spec hash, output format, option flags). The
// parts are JSON-encoded and digested together, so changing any one of them
// yields a distinct key.
func Key(prefix string, parts ...any) string {
	encoded, _ := json.Marshal(parts)
	return prefix + ":" + Hash(encoded)
}

// Hash returns the hex SHA-256 digest of data. It content-addresses spec
// bytes and anchors key derivation.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
