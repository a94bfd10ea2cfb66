/*
Package randx provides cryptographically secure random identifiers and tokens.

It generates Base62 tokens for email verification and password reset links,
object-key suffixes for uploads, and UUID message identifiers.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 character set.
	Base62Len = int64(len(Base62Chars))

	// AccountTokenLength is the length of verification and reset tokens.
	AccountTokenLength = 32

	// UploadSuffixLength is the length of the random part of upload object keys.
	UploadSuffixLength = 12
)

// base62String returns a random Base62 string of the given length using crypto/rand.
func base62String(length int) (string, error) {
	result := make([]byte, length)

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random base62 character: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// AccountToken generates an opaque token for email verification and password
// reset links.
func AccountToken() (string, error) {
	return base62String(AccountTokenLength)
}

// UploadSuffix generates the random filename part of an upload object key.
func UploadSuffix() (string, error) {
	return base62String(UploadSuffixLength)
}

// MessageID generates a UUID v4 string serving as a unique message identifier.
func MessageID() string {
	return uuid.New().String()
}

// ConnectionID generates the transport-level identity for a websocket session.
func ConnectionID() string {
	return uuid.New().String()
}

// IsBase62 reports whether every character of s belongs to the Base62 set.
func IsBase62(s string) bool {
	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}
	return len(s) > 0
}
