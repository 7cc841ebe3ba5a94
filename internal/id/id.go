package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// inviteAlphabet is the character set for user invite codes.
const inviteAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// inviteLength is the number of characters in an invite code.
const inviteLength = 10

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "proj-V1StGXR8_Z5jdHi6B-myT")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	// Use default NanoID (21 characters, URL-safe alphabet)
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// InviteCode generates a short alphanumeric code suitable for sharing.
// Codes are not guaranteed unique; callers retry on collision.
func InviteCode() (string, error) {
	code, err := gonanoid.Generate(inviteAlphabet, inviteLength)
	if err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return code, nil
}
