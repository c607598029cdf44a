package login

import (
	"context"

	"github.com/jrsteele09/go-session-client/authmodel"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// PasswordGrant authenticates with the OAuth2 resource owner password credentials grant and
// returns the issued access token.
type PasswordGrant struct {
	config *oauth2.Config
}

func NewPasswordGrant(clientID, clientSecret, tokenURL string, scopes []string) (*PasswordGrant, error) {
	if clientID == "" {
		return nil, errors.New("[NewPasswordGrant] client id is required")
	}
	if tokenURL == "" {
		return nil, errors.New("[NewPasswordGrant] token url is required")
	}
	return &PasswordGrant{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: scopes,
		},
	}, nil
}

func (pg *PasswordGrant) Login(ctx context.Context, credentials authmodel.Credentials) (string, error) {
	if credentials.Empty() {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := pg.config.PasswordCredentialsToken(ctx, credentials.Identifier, credentials.Secret)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			return "", errors.Wrap(apperrors.ErrInvalidCredentials, "[PasswordGrant.Login]")
		}
		return "", errors.Wrap(err, "[PasswordGrant.Login] token request failed")
	}
	if token.AccessToken == "" {
		return "", errors.Wrap(apperrors.ErrInvalidToken, "[PasswordGrant.Login] empty access token")
	}
	return token.AccessToken, nil
}
