package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	keySeparator = ":"
	hashLength   = 16
)

// KeyGenerator derives opaque fixed-length keys from normalized request text
// for contexts where the readable key form is unsuitable (log labels, entries
// keyed by request plus extra context).
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a KeyGenerator with the given prefix.
func NewKeyGenerator(prefix string) *KeyGenerator {
	return &KeyGenerator{prefix: prefix}
}

// Generate derives a key from the normalized text alone.
func (kg *KeyGenerator) Generate(normalized string) string {
	return kg.buildKey(hashText(normalized))
}

// GenerateWithContext derives a key from the normalized text plus a context
// discriminator, so the same question in different contexts keys separately.
func (kg *KeyGenerator) GenerateWithContext(normalized, discriminator string) string {
	return kg.buildKey(hashText(normalized + keySeparator + discriminator))
}

func (kg *KeyGenerator) buildKey(hash string) string {
	if kg.prefix == "" {
		return hash
	}
	return strings.Join([]string{kg.prefix, hash}, keySeparator)
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:hashLength]
}
