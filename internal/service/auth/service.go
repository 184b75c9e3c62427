package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/livepaste/backend/internal/model/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service authenticates users against the credential store and issues the
// bearer tokens consumed by owner-restricted session operations.
type Service struct {
	users      *user.Store
	secret     []byte
	expiration time.Duration
}

// NewService wires the credential store to token issuance.
func NewService(users *user.Store, secret string, expiration time.Duration) *Service {
	return &Service{
		users:      users,
		secret:     []byte(secret),
		expiration: expiration,
	}
}

// LoginResponse is the token bundle returned to a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Username    string `json:"username"`
}

// Login validates credentials and returns a signed token.
func (s *Service) Login(username, password string) (*LoginResponse, error) {
	if !s.users.Verify(username, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.expiration.Seconds()),
		Username:    username,
	}, nil
}

// VerifyToken validates a bearer token and returns the principal it names.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
