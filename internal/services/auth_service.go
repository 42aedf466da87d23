package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/models"
	mongorepo "github.com/arogyalabs/bitebot/internal/repositories/mongo"
	"github.com/arogyalabs/bitebot/internal/utils"
)

const tokenTTL = 24 * time.Hour

// AuthClaims is the token payload. The app-level role rides alongside the
// registered claims so the middleware can gate doctor routes without a
// user lookup.
type AuthClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, creds Credentials) (*AuthResult, error)
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	// Verify parses and validates a signed token.
	Verify(token string) (*AuthClaims, error)
}

type authService struct {
	users  mongorepo.UserRepository
	secret []byte
	log    *logrus.Logger
}

func NewAuthService(users mongorepo.UserRepository, secret string, log *logrus.Logger) AuthService {
	return &authService{users: users, secret: []byte(secret), log: log}
}

func (s *authService) Register(ctx context.Context, creds Credentials) (*AuthResult, error) {
	const op = "AuthService.Register"

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}
	if len(creds.Password) < 8 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "password must be at least 8 characters", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, utils.E(utils.CodeConflict, op, "email already registered", nil)
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to check existing user", err)
	}

	hash, err := utils.HashPassword(creds.Password)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         creds.Name,
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}
	s.log.WithField("email", email).Info("auth: user registered")
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	const op = "AuthService.Login"

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if !user.IsActive {
		return nil, utils.E(utils.CodeForbidden, op, "account is disabled", nil)
	}
	if err := utils.CheckPassword(user.PasswordHash, creds.Password); err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
	}

	if err := s.users.SetLastLogin(ctx, user.ID.Hex(), time.Now().UTC()); err != nil {
		s.log.WithError(err).Warn("auth: failed to record last login")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) issue(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Role: string(user.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) Verify(token string) (*AuthClaims, error) {
	const op = "AuthService.Verify"

	claims := &AuthClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || tok == nil || !tok.Valid {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid token", err)
	}
	if claims.Subject == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "missing subject", nil)
	}
	return claims, nil
}
