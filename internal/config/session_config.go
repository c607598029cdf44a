package config

import "time"

type ReauthValidation string

const (
	ReauthValidationNone   ReauthValidation = "none"
	ReauthValidationExpiry ReauthValidation = "expiry"
	ReauthValidationOIDC   ReauthValidation = "oidc"
)

type SessionConfig interface {
	GetLoginTimeout() time.Duration
	GetEventQueueSize() int
	GetReauthValidation() ReauthValidation
}

type Session struct{}

var _ SessionConfig = Session{}

// GetLoginTimeout bounds a single login call. Zero disables the bound.
func (Session) GetLoginTimeout() time.Duration {
	return GetEnvDuration("LOGIN_TIMEOUT", 30*time.Second)
}

func (Session) GetEventQueueSize() int {
	return GetEnvInt("EVENT_QUEUE_SIZE", 16)
}

// GetReauthValidation controls how a token found in storage is checked before it is trusted.
// The default trusts it as-is.
func (Session) GetReauthValidation() ReauthValidation {
	return ReauthValidation(GetEnv("REAUTH_VALIDATION", string(ReauthValidationNone)))
}
