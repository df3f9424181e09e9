package httpkit

import (
	"errors"
	"net/http"
	"time"

	"propensia_dashboard/platform/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const batchTokenType = "draft_batch"

var errInvalidBatchToken = errors.New("invalid draft batch token")

// BatchCookie signs draft batch IDs into an HttpOnly cookie so an approval
// can find its batch without server-side session affinity.
type BatchCookie struct {
	secret []byte
	name   string
	secure bool
}

// NewBatchCookie creates a BatchCookie from the session settings.
func NewBatchCookie(cfg config.SessionConfig) *BatchCookie {
	return &BatchCookie{
		secret: []byte(cfg.GetSecretKey()),
		name:   cfg.GetBatchCookieName(),
		secure: cfg.GetBatchCookieSecure(),
	}
}

// Sign returns a signed token carrying batchID that expires after ttl.
func (b *BatchCookie) Sign(batchID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  batchID,
		"type": batchTokenType,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString(b.secret)
}

// Parse validates a token and returns the batch ID it carries.
func (b *BatchCookie) Parse(raw string) (string, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return b.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errInvalidBatchToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidBatchToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != batchTokenType {
		return "", errInvalidBatchToken
	}
	batchID, _ := claims["sub"].(string)
	if batchID == "" {
		return "", errInvalidBatchToken
	}
	return batchID, nil
}

// Set writes the signed batch cookie on the response.
func (b *BatchCookie) Set(c *gin.Context, batchID string, ttl time.Duration) error {
	value, err := b.Sign(batchID, ttl)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(b.name, value, int(ttl/time.Second), "/", "", b.secure, true)
	return nil
}

// BatchID reads and verifies the batch cookie. Returns "" when absent or invalid.
func (b *BatchCookie) BatchID(c *gin.Context) string {
	raw, err := c.Cookie(b.name)
	if err != nil || raw == "" {
		return ""
	}
	batchID, err := b.Parse(raw)
	if err != nil {
		return ""
	}
	return batchID
}

// Clear removes the batch cookie.
func (b *BatchCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(b.name, "", -1, "/", "", b.secure, true)
}
