package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/willr196/vergo-db-sub002/internal/client/store"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

// Refresh endpoints per account kind. The jobseeker path doubles as the
// fallback when no user type is stored.
const (
	RefreshPathJobSeeker = "/api/v1/auth/jobseeker/refresh"
	RefreshPathClient    = "/api/v1/auth/client/refresh"
)

// Client performs authenticated calls against the backend. The access
// token is read fresh from the credential store on every call; a 401
// triggers exactly one refresh and one retry per logical call. Concurrent
// 401s share a single in-flight refresh, so a backend that rotates
// refresh tokens on use only ever sees one exchange at a time.
type Client struct {
	baseURL string
	http    *http.Client
	creds   store.Store
	log     zerolog.Logger
	refresh singleflight.Group
}

func New(baseURL string, creds store.Store, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		creds:   creds,
		log:     log,
	}
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, retried bool) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return requestError(err)
		}
		payload = b
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return requestError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.creds.Get(store.KeyAccessToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		c.peekExpiry(token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if retried {
			return authError(decodeEnvelope(resp.StatusCode, raw))
		}
		if err := c.refreshTokens(ctx); err != nil {
			// Refresh is spent; tear the session down and surface the
			// original authorization failure.
			_ = c.creds.Wipe()
			c.log.Debug().Err(err).Msg("token refresh failed, session wiped")
			return authError(decodeEnvelope(resp.StatusCode, raw))
		}
		return c.do(ctx, method, path, body, out, true)
	}

	if apiErr := decodeEnvelope(resp.StatusCode, raw); apiErr != nil {
		return apiErr
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &APIError{Kind: KindServer, Message: "malformed response body", Status: resp.StatusCode, cause: err}
		}
	}
	return nil
}

// refreshTokens exchanges the stored refresh token for a new access token
// and persists the result. All concurrent callers await the same exchange.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		refresh, ok := c.creds.Get(store.KeyRefreshToken)
		if !ok || refresh == "" {
			return nil, authError(nil)
		}
		path := RefreshPathJobSeeker
		if ut, _ := c.creds.Get(store.KeyUserType); models.UserType(ut) == models.UserTypeClient {
			path = RefreshPathClient
		}
		body, _ := json.Marshal(map[string]string{"refreshToken": refresh})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, requestError(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, networkError(err)
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, networkError(err)
		}
		if apiErr := decodeEnvelope(resp.StatusCode, raw); apiErr != nil {
			return nil, apiErr
		}
		var tokens models.TokenResponse
		if err := json.Unmarshal(raw, &tokens); err != nil || tokens.AccessToken == "" {
			return nil, &APIError{Kind: KindServer, Message: "empty access token on refresh", Status: resp.StatusCode, cause: err}
		}
		if err := c.creds.Set(store.KeyAccessToken, tokens.AccessToken); err != nil {
			return nil, err
		}
		if tokens.RefreshToken != "" {
			if err := c.creds.Set(store.KeyRefreshToken, tokens.RefreshToken); err != nil {
				return nil, err
			}
		}
		c.log.Debug().Msg("access token refreshed")
		return nil, nil
	})
	return err
}

// peekExpiry decodes the token's exp claim without verification, purely to
// log when a call goes out with an almost-expired token. Authorization
// stays server-driven.
func (c *Client) peekExpiry(token string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if until := time.Until(exp.Time); until < time.Minute {
		c.log.Debug().Dur("expires_in", until).Msg("access token near expiry")
	}
}
