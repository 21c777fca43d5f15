// Package auth implements token minting/verification and password hashing
// for the account service.
package auth

import (
	"errors"
	"time"

	"github.com/clipstream/backend/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims includes the registered claims plus the user id the token is bound to.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// TokenConfig is the immutable signing policy injected into the TokenService
// at construction. Access and refresh tokens use distinct secrets so that one
// can never be verified as the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenService mints and verifies the signed access/refresh token pair.
// It holds no persistent state.
type TokenService struct {
	cfg TokenConfig
}

func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// IssueAccessToken signs a short-lived token binding the user id.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return generateToken(userID, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

// IssueRefreshToken signs a long-lived token binding the user id.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return generateToken(userID, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
}

// VerifyAccessToken returns the user id embedded in a valid access token.
func (s *TokenService) VerifyAccessToken(token string) (string, error) {
	return getUserIDFromToken(token, s.cfg.AccessSecret)
}

// VerifyRefreshToken returns the user id embedded in a valid refresh token.
func (s *TokenService) VerifyRefreshToken(token string) (string, error) {
	return getUserIDFromToken(token, s.cfg.RefreshSecret)
}

func generateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			// Unique per token so that rotation always yields a fresh value,
			// even for pairs minted within the same second.
			ID: uuid.NewString(),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func getUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
