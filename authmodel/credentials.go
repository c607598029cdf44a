package authmodel

import "strings"

// Credentials is the transient login input submitted by a user. It is consumed by a single
// authentication attempt and never persisted.
type Credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Empty reports whether either field is blank.
func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Identifier) == "" || c.Secret == ""
}

// String never includes the secret.
func (c Credentials) String() string {
	return "Credentials{" + c.Identifier + "}"
}
