package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/auth"
	"tokocommerce/internal/models"
	"tokocommerce/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration // Duration for which JWT is valid
	log       *zap.Logger
}

// NewAuthService creates a new AuthService. A non-positive tokenTTL means 24 hours.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Register creates a user with a bcrypt-hashed password. Only the user role
// can be self-registered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	switch in.Role {
	case "", models.RoleUser:
		in.Role = models.RoleUser
	case models.RoleAdmin:
		return nil, apperrors.Forbidden("admin accounts cannot be self-registered")
	default:
		return nil, apperrors.Validation("invalid role: %s", in.Role)
	}
	return s.createUser(ctx, in)
}

// EnsureAdmin creates the admin account for email unless a user with that
// email already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	existing, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, false, err
	}
	user, err := s.createUser(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: models.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email '%s' already registered", email)
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// Login authenticates a user and returns a signed JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return "", apperrors.NotFound("user not found")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperrors.Unauthorized("invalid password")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Internal(err, "failed to generate token")
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT, returning the identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (auth.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug("token validation failed", zap.Error(err))
		return auth.Identity{}, apperrors.Wrap(apperrors.KindUnauthorized, err, "invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return auth.Identity{}, apperrors.Unauthorized("invalid token")
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		return auth.Identity{}, apperrors.Unauthorized("token is missing user claims")
	}
	return auth.Identity{UserID: userID, Role: role}, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, identity auth.Identity) (*models.User, error) {
	if identity.UserID == "" {
		return nil, apperrors.Unauthorized("user not found")
	}
	return s.userRepo.GetByID(ctx, identity.UserID)
}
