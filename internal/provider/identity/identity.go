// Package identity exchanges a hosted sign-in session for the profile of the
// signed in user.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httpclient"
)

const serviceIdentity = "identity"

// ErrInvalidSession is returned when the provider does not recognise the
// session id.
var ErrInvalidSession = errors.New("invalid identity session")

// Client calls the identity provider's session endpoint.
type Client struct {
	client     httpclient.Doer
	sessionURL string
}

// NewClient creates an identity client for sessionURL.
func NewClient(client httpclient.Doer, sessionURL string) *Client {
	return &Client{client: client, sessionURL: sessionURL}
}

// Exchange returns the profile behind sessionID.
func (c *Client) Exchange(ctx context.Context, sessionID string) (*domain.IdentityProfile, error) {
	header := http.Header{}
	header.Set("X-Session-ID", sessionID)

	var p domain.IdentityProfile
	if err := httpclient.DoJSON(ctx, c.client, serviceIdentity, http.MethodGet, c.sessionURL, header, nil, &p); err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && httpclient.IsClientError(se.Status) && se.Status != http.StatusTooManyRequests {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Email == "" {
		return nil, ErrInvalidSession
	}
	return &p, nil
}
