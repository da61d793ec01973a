package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// GenerateToken returns a high-entropy opaque token: the SHA-256 hex digest
// of salt, the current unix-milli timestamp and 32 bytes of secure random
// data. Used for verification tokens, where the value itself is the secret.
func GenerateToken(salt string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	base := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + hex.EncodeToString(buf)
	if salt != "" {
		base = salt + "-" + base
	}
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:]), nil
}

// SanitizeFileName kebab-cases a file base name: lower case, spaces to
// dashes, everything outside [a-z0-9_-] dropped.
func SanitizeFileName(base string) string {
	out := make([]rune, 0, len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
			fallthrough
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
			prevDash = false
		case r == ' ' || r == '-':
			if !prevDash && len(out) > 0 {
				out = append(out, '-')
				prevDash = true
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return fmt.Sprintf("file-%d", time.Now().Unix())
	}
	return string(out)
}
