package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/internal/dtos"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type claimsKey string

const UserClaimsKey claimsKey = "userClaims"

// JWTAuth verifies the bearer token and stores the subject (user id) in the
// request context under UserClaimsKey.
func JWTAuth(publicKey *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAppError(w, r, app_error.NewAuthenticationError("Missing Authorization header", "auth"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAppError(w, r, app_error.NewAuthenticationError("Invalid Authorization header format", "auth"))
				return
			}

			claims, err := utils.ParseAndVerifySign(parts[1], publicKey)
			if err != nil {
				log.Warn().Err(err).Str("requestID", GetRequestId(r)).Msg("jwt verify failed")
				msg := "Invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Token expired"
				}
				writeAppError(w, r, app_error.NewAuthenticationError(msg, "auth"))
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserId returns the subject stored by JWTAuth.
func GetUserId(r *http.Request) (string, bool) {
	sub, ok := r.Context().Value(UserClaimsKey).(string)
	return sub, ok && sub != ""
}

func writeAppError(w http.ResponseWriter, r *http.Request, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = json.NewEncoder(w).Encode(dtos.NewErrorResponse(appErr, GetRequestId(r), false))
}
