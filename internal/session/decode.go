package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/logger"
)

// Claims is the decoded payload of a token
type Claims map[string]any

var (
	errSegmentCount = errors.New("invalid token format")
	errNotAnObject  = errors.New("token payload is not a JSON object")
)

// Decode returns the claims carried in the middle segment of a three-segment
// token. The signature is not checked. ok is false when the token is
// malformed.
func Decode(token string) (Claims, bool) {
	return DecodeWithLogger(token, nil)
}

// DecodeWithLogger is Decode that logs why a token could not be decoded.
// A nil logger discards the message.
func DecodeWithLogger(token string, log *zap.Logger) (Claims, bool) {
	claims, err := decode(token)
	if err != nil {
		logger.OrNop(log).Debug("token_decode_failed", zap.String("error", logger.SanitizeError(err)))
		return nil, false
	}
	return claims, true
}

func decode(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errSegmentCount
	}

	payload := parts[1]
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Signed tokens normally use the URL-safe alphabet
		var urlErr error
		raw, urlErr = base64.URLEncoding.DecodeString(payload)
		if urlErr != nil {
			return nil, fmt.Errorf("decode token payload: %w", err)
		}
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("parse token payload: %w", err)
	}
	if claims == nil {
		return nil, errNotAnObject
	}
	return claims, nil
}

// Subject returns the "sub" claim when it is a non-empty string
func (c Claims) Subject() (string, bool) {
	sub, ok := c["sub"].(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// String returns a string claim
func (c Claims) String(key string) string {
	s, _ := c[key].(string)
	return s
}
