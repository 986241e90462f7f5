package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"
	"unicode"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/email"
	"github.com/ErlanBelekov/taskboard/internal/repository"
	"github.com/ErlanBelekov/taskboard/internal/sanitize"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultJWTTTL = 24 * time.Hour

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthUsecase struct {
	users  repository.UserRepository
	email  email.Sender
	logger *slog.Logger
	jwtKey []byte
	jwtTTL time.Duration

	// dummyHash is compared against when the email is unknown so that a
	// failed login costs one bcrypt verification either way.
	dummyHash []byte
}

func NewAuthUsecase(users repository.UserRepository, emailSender email.Sender, jwtKey []byte, jwtTTL time.Duration, logger *slog.Logger) *AuthUsecase {
	if jwtTTL <= 0 {
		jwtTTL = defaultJWTTTL
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("taskboard-no-such-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return &AuthUsecase{
		users:     users,
		email:     emailSender,
		logger:    logger.With("component", "auth_usecase"),
		jwtKey:    jwtKey,
		jwtTTL:    jwtTTL,
		dummyHash: dummy,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register validates and creates a new user, returning it together with a
// signed token. The plaintext password is hashed immediately and never
// stored or logged.
func (u *AuthUsecase) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	name := sanitize.Text(input.Name)
	addr := sanitize.Email(input.Email)

	if name == "" || addr == "" || input.Password == "" {
		return nil, "", fmt.Errorf("%w: please provide name, email and password", domain.ErrInvalidInput)
	}
	if !emailRe.MatchString(addr) {
		return nil, "", fmt.Errorf("%w: please provide a valid email", domain.ErrInvalidInput)
	}
	if !validPassword(input.Password) {
		return nil, "", fmt.Errorf("%w: password must be at least 6 characters and contain at least one letter and one number", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, name, addr, string(hash))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", domain.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := u.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	// Welcome email is best effort; registration never fails because of it.
	subject := "Welcome to Taskboard"
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready. Happy planning!</p>", user.Name)
	if err := u.email.Send(ctx, user.Email, subject, body); err != nil {
		u.logger.WarnContext(ctx, "welcome email", "error", err)
	}

	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, password string) (*domain.User, string, error) {
	addr := sanitize.Email(emailAddr)
	if addr == "" || password == "" {
		return nil, "", fmt.Errorf("%w: please provide email and password", domain.ErrInvalidInput)
	}

	user, err := u.users.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(u.dummyHash, []byte(password))
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	if err := u.users.TouchLastLogin(ctx, user.ID); err != nil {
		u.logger.WarnContext(ctx, "touch last login", "user_id", user.ID, "error", err)
	} else {
		now := time.Now()
		user.LastLoginAt = &now
	}

	token, err := u.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (u *AuthUsecase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

type UpdateProfileInput struct {
	Name   *string
	Email  *string
	Avatar *string
}

// UpdateProfile mutates name, email, and avatar only. Email uniqueness is
// re-checked by the storage layer's unique index, so a concurrent duplicate
// still loses.
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	fields := repository.UpdateUserFields{}

	if input.Name != nil {
		name := sanitize.Text(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		fields.Name = &name
	}
	if input.Email != nil {
		addr := sanitize.Email(*input.Email)
		if !emailRe.MatchString(addr) {
			return nil, fmt.Errorf("%w: please provide a valid email", domain.ErrInvalidInput)
		}
		fields.Email = &addr
	}
	if input.Avatar != nil {
		avatar := sanitize.Text(*input.Avatar)
		fields.Avatar = &avatar
	}

	if fields.Name == nil && fields.Email == nil && fields.Avatar == nil {
		return u.GetProfile(ctx, userID)
	}

	user, err := u.users.Update(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (u *AuthUsecase) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(u.jwtTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// validPassword requires at least 6 characters with one letter and one digit.
func validPassword(pw string) bool {
	if len(pw) < 6 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
