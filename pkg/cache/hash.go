package cache

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"
)

// Hash returns the hex-encoded 256-bit BLAKE3 hash of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v. Map keys are sorted by the
// encoder, so equal values always hash alike.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// hashKey builds "prefix:hash(parts...)".
func hashKey(prefix string, parts ...any) string {
	h := blake3.New(32, nil)
	_ = json.NewEncoder(h).Encode(parts)
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
