package state

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// InitSecret loads the RSA public key used to verify actor tokens.
// Tokens are issued by the external auth service; this process never signs.
func InitSecret(publicKeyPath string) (*JwtSecret, error) {
	pubKeyBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, err
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	log.Info().Msg("JWT public key initialized successfully")
	return &JwtSecret{
		Public: pubKey,
	}, nil
}
