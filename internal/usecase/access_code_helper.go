package usecase

import (
	"crypto/rand"
	"io"
)

// generateAccessCode creates a secure, random 12-character access code.
// The 36-character alphabet gives a 36^12 keyspace, large enough that
// collisions are negligible; the caller still checks for an existing code
// per order before minting.
func generateAccessCode() (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const codeLength = 12

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
