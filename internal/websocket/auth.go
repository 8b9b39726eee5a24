package websocket

import (
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xenn00/chat-rooms/internal/utils"
)

// AuthenticatorFunc resolves the user id behind an upgrade request.
type AuthenticatorFunc func(r *http.Request) (userID string, err error)

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func JWTWebSocketAuth(publicKey *rsa.PublicKey) AuthenticatorFunc {
	return func(r *http.Request) (string, error) {
		token := getTokenFromRequest(r)
		if token == "" {
			return "", &AuthError{Message: "missing token"}
		}

		claims, err := utils.ParseAndVerifySign(token, publicKey)
		if err != nil {
			// the handshake cannot refresh, client must reconnect with a fresh token
			if errors.Is(err, jwt.ErrTokenExpired) {
				return "", &AuthError{Message: "token expired, please refresh and reconnect"}
			}
			return "", &AuthError{Message: "invalid token"}
		}

		return claims.Sub, nil
	}
}

func getTokenFromRequest(r *http.Request) string {
	// Option 1: Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	// Option 2: Query parameter, browsers cannot set headers on upgrade
	return r.URL.Query().Get("token")
}
