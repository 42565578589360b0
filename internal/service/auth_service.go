package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"go-soft-delete/internal/model"
	"go-soft-delete/pkg/apierror"
)

const bcryptCost = 12

type usersDocument struct {
	Users []model.User `yaml:"users"`
}

// AuthService authenticates operators from a YAML users file and issues
// short-lived HS256 access tokens.
type AuthService struct {
	usersFile       string
	jwtSecret       []byte
	accessTTL       time.Duration
	mu              sync.RWMutex
	usersByUsername map[string]model.User
	usersByID       map[string]model.User
}

func NewAuthService(usersFile string, jwtSecret string, accessTTL time.Duration) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	service := &AuthService{
		usersFile:       usersFile,
		jwtSecret:       []byte(jwtSecret),
		accessTTL:       accessTTL,
		usersByUsername: map[string]model.User{},
		usersByID:       map[string]model.User{},
	}

	if err := service.loadUsers(); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *AuthService) Login(username string, password string) (model.TokenResponse, error) {
	s.mu.RLock()
	user, exists := s.usersByUsername[strings.ToLower(strings.TrimSpace(username))]
	s.mu.RUnlock()
	if !exists {
		return model.TokenResponse{}, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenResponse{}, model.ErrInvalidCredentials
	}

	token, err := s.signToken(user)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User:        model.AuthUser{ID: user.ID, Username: user.Username, Role: user.Role},
	}, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Unauthorized("invalid token signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, apierror.Wrap(err, "UNAUTHORIZED", http.StatusUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, apierror.Unauthorized("invalid token")
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthorized("invalid token claims")
	}

	claims := &model.AuthClaims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.Kind, _ = claimsMap["knd"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, apierror.Unauthorized("invalid token subject")
	}

	return claims, nil
}

func (s *AuthService) GetUserByID(userID string) (model.AuthUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[userID]
	if !exists {
		return model.AuthUser{}, fmt.Errorf("%w: %s", model.ErrUserNotFound, userID)
	}

	return model.AuthUser{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *AuthService) signToken(user model.User) (string, error) {
	now := time.Now().UTC()
	kind := user.Kind
	if kind == "" {
		kind = string(model.ActorKindAdmin)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"knd":      kind,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) loadUsers() error {
	if strings.TrimSpace(s.usersFile) == "" {
		return errors.New("users file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(s.usersFile), 0o755); err != nil {
		return err
	}

	data, err := os.ReadFile(s.usersFile)
	if os.IsNotExist(err) || (err == nil && len(strings.TrimSpace(string(data))) == 0) {
		if err := s.seedDefaultAdmin(); err != nil {
			return err
		}
		data, err = os.ReadFile(s.usersFile)
	}
	if err != nil {
		return err
	}

	var doc usersDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse users file: %w", err)
	}
	if len(doc.Users) == 0 {
		return fmt.Errorf("users file %s defines no users", s.usersFile)
	}

	usersByUsername := map[string]model.User{}
	usersByID := map[string]model.User{}
	for _, user := range doc.Users {
		if user.ID == "" || user.Username == "" || user.PasswordHash == "" {
			return fmt.Errorf("users file %s: every user needs id, username and password_hash", s.usersFile)
		}
		usersByUsername[strings.ToLower(user.Username)] = user
		usersByID[user.ID] = user
	}

	s.mu.Lock()
	s.usersByUsername = usersByUsername
	s.usersByID = usersByID
	s.mu.Unlock()

	return nil
}

// seedDefaultAdmin writes a single admin with a random password, printed
// once in the log.
func (s *AuthService) seedDefaultAdmin() error {
	raw := make([]byte, 12)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	password := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	doc := usersDocument{Users: []model.User{{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         "admin",
		CreatedAt:    time.Now().UTC(),
	}}}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.usersFile, data, 0o600); err != nil {
		return err
	}

	slog.Warn("seeded default admin user; change the password", "users_file", s.usersFile, "username", "admin", "password", password)
	return nil
}
