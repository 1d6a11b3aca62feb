package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
)

// Credentials is the flow-local sign-in input.
type Credentials struct {
	Identifier string
	Secret     string
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Authority Authority
	Store     SessionStore
	Path      string
}

// LoginResult carries the established session or failure metadata.
type LoginResult struct {
	Failure    FailureKind
	Err        error
	Message    string
	StatusCode int
	Session    *session.Session
}

// loginRequest carries both field spellings accepted by console authorities.
type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

type tokenPair struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user"`
}

// RunLogin exchanges credentials for a session and persists it. On any
// failure the store is left untouched.
func RunLogin(ctx context.Context, creds Credentials, deps LoginDeps) LoginResult {
	if strings.TrimSpace(creds.Identifier) == "" || creds.Secret == "" {
		return LoginResult{
			Failure: FailureInvalidCredentials,
			Err:     errors.New("identifier and secret are required"),
		}
	}

	var raw json.RawMessage
	err := deps.Authority.DoJSON(ctx, http.MethodPost, deps.Path, loginRequest{
		Identifier: creds.Identifier,
		Secret:     creds.Secret,
		Username:   creds.Identifier,
		Password:   creds.Secret,
	}, &raw)
	if err != nil {
		return LoginResult{
			Failure:    classify(err, FailureInvalidCredentials),
			Err:        err,
			Message:    transport.Message(err),
			StatusCode: transport.StatusCode(err),
		}
	}

	sess, err := sessionFromResponse(raw)
	if err != nil {
		return LoginResult{Failure: FailureServer, Err: err, StatusCode: http.StatusOK}
	}

	if err := deps.Store.Write(ctx, sess); err != nil {
		return LoginResult{Failure: FailureStore, Err: err}
	}

	return LoginResult{Session: sess}
}

// sessionFromResponse builds a session from a sign-in payload. The user
// snapshot is either nested under "user" or flattened next to the tokens.
func sessionFromResponse(raw json.RawMessage) (*session.Session, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errMissingTokens
	}

	var pair tokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, errMissingTokens
	}

	userBytes := []byte(raw)
	if nested := bytes.TrimSpace(pair.User); len(nested) > 0 && nested[0] == '{' {
		userBytes = nested
	}
	user, err := session.DecodeUserBytes(userBytes)
	if err != nil {
		return nil, err
	}
	if !hasIdentity(user) {
		return nil, errMissingIdentity
	}

	return &session.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, nil
}

func hasIdentity(u *session.User) bool {
	return u != nil && (u.ID != 0 || u.Username != "")
}
