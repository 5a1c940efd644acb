package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/conadsciacca/totem-voti/internal/config"
	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords: callers must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the authenticated identity carried by the session cookie.
type Session struct {
	Username string
	Role     string
	Store    string
}

// AuthService handles credential checks and session tokens.
type AuthService struct {
	userRepo      repositories.UserRepository
	sessionSecret []byte
	tokenDurat    time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sessionSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionSecret: []byte(sessionSecret),
		tokenDurat:    12 * time.Hour,
	}
}

// Login verifies a username/password pair and returns a signed session
// token plus the user's role. The password check is bcrypt's constant-time
// comparison.
func (s *AuthService) Login(username, password string) (string, string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     user.Role,
		"store":    user.Store,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.sessionSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, user.Role, nil
}

// ValidateToken parses and verifies a session token, returning the
// session it carries.
func (s *AuthService) ValidateToken(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.sessionSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	session := &Session{
		Username: asString(claims["username"]),
		Role:     asString(claims["role"]),
		Store:    asString(claims["store"]),
	}
	if session.Username == "" || session.Role == "" {
		return nil, fmt.Errorf("session token missing identity claims")
	}
	return session, nil
}

// EnsureSeedUsers bootstraps the configured accounts. Passwords are
// hashed before storage; usernames that already exist are left alone,
// so the bootstrap is idempotent across restarts.
func (s *AuthService) EnsureSeedUsers(seeds []config.SeedUser) error {
	for _, seed := range seeds {
		if existing, err := s.userRepo.GetByUsername(seed.Username); err == nil && existing != nil {
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for seed user %s: %w", seed.Username, err)
		}

		user := &models.User{
			Username: seed.Username,
			Password: string(hashed),
			Role:     seed.Role,
			Store:    seed.Store,
		}
		if err := s.userRepo.Create(user); err != nil {
			// Concurrent bootstrap of the same username loses the
			// unique-index race; treat that as already seeded.
			if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "UNIQUE") {
				continue
			}
			return fmt.Errorf("failed to create seed user %s: %w", seed.Username, err)
		}
		log.Printf("Seeded user %s (role=%s store=%s)", seed.Username, seed.Role, seed.Store)
	}
	return nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
