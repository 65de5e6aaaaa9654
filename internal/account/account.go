package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/neurofit/internal/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput is returned when a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// maxPasswordLength is the input limit of bcrypt.
const maxPasswordLength = 72

// Service registers and authenticates users.
type Service struct {
	db   database.DB
	cost int
}

// New creates a new account service.
func New(db database.DB) *Service {
	return &Service{
		db:   db,
		cost: bcrypt.DefaultCost,
	}
}

// Register creates a new user with a hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*database.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	if len(password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must not be longer than %d bytes", ErrInvalidInput, maxPasswordLength)
	}

	if taken, err := s.exists(ctx, s.db.GetUserByUsername, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateUsername
	}
	if taken, err := s.exists(ctx, s.db.GetUserByEmail, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.db.CreateUser(ctx, username, email, string(hash))
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race against a concurrent signup
			return nil, s.duplicateCause(ctx, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate verifies the password of the user with the given email.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*database.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug("Password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) exists(ctx context.Context, lookup func(context.Context, string) (*database.User, error), value string) (bool, error) {
	_, err := lookup(ctx, value)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up user: %w", err)
}

func (s *Service) duplicateCause(ctx context.Context, username string) error {
	if taken, err := s.exists(ctx, s.db.GetUserByUsername, username); err == nil && taken {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
