package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the two independent token models: the single v1 token,
// and the v2 access+refresh pair
type TokenStore struct {
	files *FileStore
}

// NewTokenStore wraps a FileStore with token accessors
func NewTokenStore(files *FileStore) *TokenStore {
	return &TokenStore{files: files}
}

// V1Token returns the stored legacy token, or empty
func (t *TokenStore) V1Token() string {
	return t.read(KeyV1Token)
}

// SetV1Token stores the legacy token
func (t *TokenStore) SetV1Token(token string) error {
	return t.files.Set(KeyV1Token, []byte(token))
}

// ClearV1 removes the legacy token
func (t *TokenStore) ClearV1() error {
	return t.files.Delete(KeyV1Token)
}

// AccessToken returns the stored v2 access token, or empty
func (t *TokenStore) AccessToken() string {
	return t.read(KeyAccessToken)
}

// RefreshToken returns the stored v2 refresh token, or empty
func (t *TokenStore) RefreshToken() string {
	return t.read(KeyRefreshToken)
}

// SetV2Pair stores the v2 token pair. Both halves are required: a session
// with only an access token cannot recover from expiry, and a bare refresh
// token is useless, so partial pairs are rejected before anything touches
// disk.
func (t *TokenStore) SetV2Pair(access, refresh string) error {
	if access == "" || refresh == "" {
		return fmt.Errorf("credentials: v2 tokens must be stored as a pair (access=%t refresh=%t)",
			access != "", refresh != "")
	}
	if err := t.files.Set(KeyAccessToken, []byte(access)); err != nil {
		return err
	}
	return t.files.Set(KeyRefreshToken, []byte(refresh))
}

// ClearV2 removes both halves of the v2 pair
func (t *TokenStore) ClearV2() error {
	if err := t.files.Delete(KeyAccessToken); err != nil {
		return err
	}
	return t.files.Delete(KeyRefreshToken)
}

// HasV2Pair reports whether a complete v2 pair is stored
func (t *TokenStore) HasV2Pair() bool {
	return t.AccessToken() != "" && t.RefreshToken() != ""
}

// AccessTokenExpiry parses the stored v2 access token as a JWT without
// verifying its signature and returns the embedded expiry. Diagnostics only:
// expiry is enforced by the server, the client reacts to 401s.
func (t *TokenStore) AccessTokenExpiry() (time.Time, bool) {
	access := t.AccessToken()
	if access == "" {
		return time.Time{}, false
	}
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(access, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (t *TokenStore) read(key string) string {
	data, ok, err := t.files.Get(key)
	if err != nil || !ok {
		return ""
	}
	return string(data)
}
