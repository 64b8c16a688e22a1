package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/career-metric/internal/config"
	"github.com/jonathan/career-metric/internal/server/middleware"
)

// Claims carries the caller identity used for profile ownership checks.
// UserID must match the user_id column of the profiles a caller evaluates.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

func (c *Claims) GetUserID() uuid.UUID {
	return c.UserID
}

// AsTokenValidator exposes the service to the auth middleware, which
// depends only on the caller id.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return bearerValidator{service: s}
}

type bearerValidator struct {
	service *JWTService
}

func (v bearerValidator) ValidateToken(raw string) (middleware.UserIDGetter, error) {
	claims, err := v.service.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTService signs and checks HS256 bearer tokens for the assessment API.
// Accounts live outside this service; a token is trusted when it was signed
// with the shared secret and names a user.
type JWTService struct {
	config *config.JWTConfig
	now    func() time.Time
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateToken issues a bearer token for userID that expires after the
// configured number of hours. The token command prints one for operators.
func (s *JWTService) GenerateToken(userID uuid.UUID) (string, error) {
	issued := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Duration(s.config.ExpirationHours) * time.Hour)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign bearer token for user %s: %w", userID, err)
	}
	return signed, nil
}

// rejections maps jwt verification failures to the reason reported to the
// auth middleware. The first match wins.
var rejections = []struct {
	target error
	reason string
}{
	{jwt.ErrTokenSignatureInvalid, "bearer token signature does not match"},
	{jwt.ErrTokenExpired, "bearer token expired"},
	{jwt.ErrTokenNotValidYet, "bearer token not valid yet"},
	{jwt.ErrTokenMalformed, "bearer token is malformed"},
}

// ValidateToken checks the signature, algorithm and validity window of raw
// and returns its claims. Tokens without a user id are rejected.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errors.New("bearer token is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, s.signingKey, jwt.WithTimeFunc(s.now))
	if err != nil {
		for _, r := range rejections {
			if errors.Is(err, r.target) {
				return nil, fmt.Errorf("%s: %w", r.reason, err)
			}
		}
		return nil, fmt.Errorf("bearer token rejected: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("bearer token rejected")
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("bearer token names no user")
	}
	return claims, nil
}

// signingKey only accepts HMAC algorithms so a token cannot pick its own
// verification scheme.
func (s *JWTService) signingKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing method %v is not accepted", token.Header["alg"])
	}
	return []byte(s.config.Secret), nil
}
