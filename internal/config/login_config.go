package config

type LoginMode string

const (
	LoginModeAPI     LoginMode = "api"     // POST {API_BASE_URL}/login
	LoginModeOAuth2  LoginMode = "oauth2"  // resource owner password grant against OAUTH_TOKEN_URL
	LoginModeOffline LoginMode = "offline" // in-process authenticator, no network
)

type LoginConfig interface {
	GetLoginMode() LoginMode
	GetOAuthClientID() string
	GetOAuthClientSecret() string
	GetOAuthTokenURL() string
	GetOAuthScopes() []string
	GetOIDCIssuer() string
	GetOfflineSigningKey() string
}

type Login struct{}

var _ LoginConfig = Login{}

func (Login) GetLoginMode() LoginMode {
	return LoginMode(GetEnv("LOGIN_MODE", string(LoginModeAPI)))
}

func (Login) GetOAuthClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

func (Login) GetOAuthClientSecret() string {
	return GetEnv("OAUTH_CLIENT_SECRET", "")
}

func (Login) GetOAuthTokenURL() string {
	return GetEnv("OAUTH_TOKEN_URL", "")
}

func (Login) GetOAuthScopes() []string {
	return []string{"openid", "profile", "email"}
}

func (Login) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Login) GetOfflineSigningKey() string {
	return GetEnv("OFFLINE_SIGNING_KEY", "offline-dev-key")
}
