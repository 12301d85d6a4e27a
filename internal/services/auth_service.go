package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"boutique/internal/apperrors"
	"boutique/internal/models"
	"boutique/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = 7 * 24 * time.Hour

	invalidCredentials = "invalid credentials"
)

// unknownAccountHash is compared against when no account matches an email,
// so a failed login costs one bcrypt comparison either way.
var unknownAccountHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("boutique:unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("services: hash placeholder password: %v", err))
	}
	return hash
})

// RegisterRequest is the payload of an account registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Address *models.Address `json:"address"`
}

// ChangePasswordRequest is the payload of a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// Session is an authenticated account together with its bearer token.
type Session struct {
	Account *models.Account `json:"user"`
	Token   string          `json:"token"`
}

// Claims are the verified contents of a bearer token.
type Claims struct {
	AccountID string
	Email     string
	ExpiresAt time.Time
}

// AuthService handles customer account registration, login and tokens.
type AuthService struct {
	accounts  repositories.AccountRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService. A non-positive ttl uses DefaultTokenTTL.
func NewAuthService(accounts repositories.AccountRepository, jwtSecret string, ttl time.Duration, logger *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:  accounts,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("email", "email already registered")
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Phone:        req.Phone,
	}
	// The repository enforces uniqueness too, for concurrent registrations.
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Info("account registered", zap.String("account_id", account.ID))
	return s.issue(account)
}

// Login checks credentials. Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			_ = bcrypt.CompareHashAndPassword(unknownAccountHash(), []byte(req.Password))
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	return s.issue(account)
}

// Refresh exchanges a currently valid token for one with a fresh expiry.
func (s *AuthService) Refresh(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return "", apperrors.InvalidToken(err)
		}
		return "", err
	}
	return s.GenerateToken(account)
}

// Profile returns the account identified by accountID.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// UpdateProfile changes name, phone and address.
func (s *AuthService) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.Missing("name")
		}
		account.Name = name
	}
	if upd.Phone != nil {
		account.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Address != nil {
		addr := *upd.Address
		account.Address = &addr
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, accountID string, req ChangePasswordRequest) error {
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(hashed)
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}
	s.logger.Info("account password changed", zap.String("account_id", accountID))
	return nil
}

// GenerateToken signs an HS256 token for account.
func (s *AuthService) GenerateToken(account *models.Account) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": account.ID,
		"email":   account.Email,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies a token. Every failure is an InvalidToken error.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(strings.TrimSpace(tokenString), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperrors.InvalidToken(err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperrors.InvalidToken(fmt.Errorf("invalid token claims"))
	}
	accountID, _ := mapClaims["user_id"].(string)
	if accountID == "" {
		return nil, apperrors.InvalidToken(fmt.Errorf("token has no user_id"))
	}
	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return nil, apperrors.InvalidToken(fmt.Errorf("token has no expiry"))
	}
	email, _ := mapClaims["email"].(string)
	return &Claims{AccountID: accountID, Email: email, ExpiresAt: time.Unix(int64(exp), 0)}, nil
}

func (s *AuthService) issue(account *models.Account) (*Session, error) {
	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, err
	}
	return &Session{Account: account, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
