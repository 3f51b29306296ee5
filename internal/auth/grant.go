package auth

import (
	"fmt"
	"net/url"
	"strings"
)

type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantClientCredentials GrantType = "client_credentials"
	GrantRefreshToken      GrantType = "refresh_token"
)

// Grant is the input to an initial token exchange.
type Grant struct {
	Type        GrantType
	Code        string
	SessionID   string
	RedirectURI string
}

func (g Grant) form(defaultRedirect string) (url.Values, error) {
	form := url.Values{}
	switch g.Type {
	case GrantAuthorizationCode:
		if strings.TrimSpace(g.Code) == "" {
			return nil, fmt.Errorf("authorization code grant requires a code")
		}
		redirect := g.RedirectURI
		if redirect == "" {
			redirect = defaultRedirect
		}
		form.Set("grant_type", string(GrantAuthorizationCode))
		form.Set("code", g.Code)
		form.Set("redirect_uri", redirect)
	case GrantClientCredentials:
		form.Set("grant_type", string(GrantClientCredentials))
	default:
		return nil, fmt.Errorf("unsupported grant type %q", g.Type)
	}
	return form, nil
}

// ParseRedirectURL extracts the authorization code and session id from the
// URL the browser lands on after the user approves access. The returned grant
// uses the controller's configured redirect URI.
func ParseRedirectURL(raw string) (Grant, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Grant{}, fmt.Errorf("parse redirect url: %w", err)
	}
	q := u.Query()
	code := q.Get("code")
	session := q.Get("session")
	if code == "" || session == "" {
		return Grant{}, fmt.Errorf("redirect url is missing code or session")
	}
	return Grant{Type: GrantAuthorizationCode, Code: code, SessionID: session}, nil
}

// BuildAuthorizeURL returns the page the user visits to approve access.
func BuildAuthorizeURL(base, clientID, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
