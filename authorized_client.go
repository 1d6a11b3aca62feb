package goConsole

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goConsole/transport"
)

// AuthorizedClient calls the authority on behalf of the signed-in user. It
// attaches the stored access token and, when the authority answers 401,
// refreshes the session once and retries. A failed refresh signs the console
// out and surfaces [ErrSessionExpired].
//
// Every error is an *Error: 403 maps to KindUnauthorizedLocal, transport
// failures to KindUnreachable and other non-2xx answers to KindServer.
type AuthorizedClient struct {
	console *Console
}

// Client returns the authorized client bound to c.
func (c *Console) Client() *AuthorizedClient {
	return &AuthorizedClient{console: c}
}

// DoJSON sends requestBody as JSON and decodes a 2xx answer into
// responseBody. Either body may be nil.
func (a *AuthorizedClient) DoJSON(ctx context.Context, method, path string, requestBody, responseBody interface{}) error {
	return a.call(ctx, func(token string) error {
		return a.console.client.DoJSON(ctx, method, path, requestBody, responseBody, transport.WithBearer(token))
	})
}

// Do sends a raw body and returns the status and body of a 2xx answer.
func (a *AuthorizedClient) Do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var (
		status int
		out    []byte
	)
	err := a.call(ctx, func(token string) error {
		var err error
		status, out, err = a.console.client.Do(ctx, method, path, body, transport.WithBearer(token))
		return err
	})
	if err != nil {
		return status, nil, err
	}
	return status, out, nil
}

func (a *AuthorizedClient) call(ctx context.Context, send func(token string) error) error {
	c := a.console
	if err := c.ready(); err != nil {
		return err
	}

	sess, ok := c.store.Read(ctx)
	if !ok {
		return newError(KindSessionExpired, "", 0, nil)
	}

	err := send(sess.AccessToken)
	if transport.StatusCode(err) != http.StatusUnauthorized {
		return translate(err)
	}

	if err := c.refreshAfterUnauthorized(ctx, sess.AccessToken); err != nil {
		return err
	}
	sess, ok = c.store.Read(ctx)
	if !ok {
		return newError(KindSessionExpired, "", 0, nil)
	}
	c.metrics.Inc(MetricAuthorizedRetry)

	return translate(send(sess.AccessToken))
}

// translate maps an authority error onto the console taxonomy. A 401 that
// survives a fresh token is reported as a server failure; the session is left
// in place.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if transport.IsUnreachable(err) {
		return newError(KindUnreachable, "", 0, err)
	}

	status := transport.StatusCode(err)
	message := transport.Message(err)
	if status == http.StatusForbidden {
		return newError(KindUnauthorizedLocal, message, status, err)
	}
	return newError(KindServer, message, status, err)
}
