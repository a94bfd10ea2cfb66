/*
Package account contains the data structures and helpers for registered user
identity, shared between the REST handlers and the session tokens.
*/
package account

import "strings"

// Identity is the API-facing representation of a signed-in account.
// Fields use JSON tags for serialization in HTTP responses.
type Identity struct {

	// ID is the account's numeric identifier rendered as a string.
	ID string `json:"id"`

	// Email is the account's email address.
	Email string `json:"email"`

	// Nickname is the registered display name.
	Nickname string `json:"nickname"`

	// ProfileImage is the avatar object key, if one has been uploaded.
	ProfileImage string `json:"profileImage,omitempty"`
}

// NormalizeNickname produces the canonical form used for uniqueness checks:
// lowercased, trimmed, with internal whitespace runs collapsed to one space.
// "Fox", "fox" and " FOX " all normalize to "fox".
func NormalizeNickname(nickname string) string {
	lowered := strings.ToLower(strings.TrimSpace(nickname))
	return strings.Join(strings.Fields(lowered), " ")
}
