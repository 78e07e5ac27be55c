package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrMissingUser   = errors.New("user ID missing in token")
	ErrNoSecret      = errors.New("JWT secret is not configured")
)

const issuer = "carepay"

// JWTClaims identifies a platform user and the facilities they belong to
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	IsSuperuser bool     `json:"is_superuser"`
	FacilityIDs []string `json:"facility_ids"`
	jwt.RegisteredClaims
}

// MemberOf reports whether the user may see the facility
func (c *JWTClaims) MemberOf(facilityID string) bool {
	return c.IsSuperuser || slices.Contains(c.FacilityIDs, facilityID)
}

// JWTService handles JWT token operations
type JWTService struct {
	secretKey []byte
	expiry    time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string, expiry time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if expiry <= 0 {
		expiry = 12 * time.Hour
	}
	return &JWTService{
		secretKey: []byte(secret),
		expiry:    expiry,
	}, nil
}

// GenerateToken issues a token for a user
func (s *JWTService) GenerateToken(userID, username string, superuser bool, facilityIDs []string) (string, error) {
	now := time.Now()

	claims := JWTClaims{
		UserID:      userID,
		Username:    username,
		IsSuperuser: superuser,
		FacilityIDs: facilityIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.UserID == "" {
		return nil, ErrMissingUser
	}

	return claims, nil
}
