package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/database/tokens"
	"github.com/mrlokans/bookclub/internal/database/users"
	"github.com/mrlokans/bookclub/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,15}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Error codes returned to clients alongside the message.
const (
	CodeEmailExists    = "API.ERROR.ALREADYEXISTSEMAIL"
	CodeUsernameExists = "API.ERROR.ALREADYEXISTSUSERNAME"
	CodeWrongPassword  = "API.ERROR.WRONGPASSWORD"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailExists        = fmt.Errorf("%w: email", ErrUserExists)
	ErrUsernameExists     = fmt.Errorf("%w: username", ErrUserExists)
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserDisabled       = errors.New("inactive user")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid    = errors.New("username must be 3-15 characters, alphanumeric, dot, underscore or hyphen")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
)

// SignupRequest carries the fields accepted on self-registration.
type SignupRequest struct {
	Email          string
	Password       string
	Username       string
	Name           string
	FirstLastName  string
	SecondLastName string
	DateOfBirth    *datatypes.Date
	EmergingAuthor bool
}

// Service handles authentication and account management.
type Service struct {
	users  *users.Repository
	tokens *tokens.Repository
	issuer *TokenIssuer
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 720 * time.Hour
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = config.DefaultJWTIssuer
	}
	return &Service{
		users:  users.NewRepository(db),
		tokens: tokens.NewRepository(db),
		issuer: NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenExpiry),
		config: cfg,
		now:    time.Now,
	}
}

func validateIdentity(email, username string) error {
	if len(email) > 60 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	if username != "" && !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// Signup registers a USER, or an AUTHOR with a linked author profile when
// EmergingAuthor is set. Emerging authors start disabled until an admin
// activates them.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*entities.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := validateIdentity(req.Email, req.Username); err != nil {
		return nil, err
	}

	if taken, err := s.users.EmailTaken(ctx, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	} else if taken {
		return nil, ErrEmailExists
	}
	if req.Username != "" {
		if taken, err := s.users.UsernameTaken(ctx, req.Username); err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		} else if taken {
			return nil, ErrUsernameExists
		}
	}

	passwordHash, err := HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:          req.Email,
		Password:       passwordHash,
		Name:           req.Name,
		FirstLastName:  req.FirstLastName,
		SecondLastName: req.SecondLastName,
		UserRole:       entities.RoleUser,
	}
	if req.Username != "" {
		user.Username = &req.Username
	}
	user.DateOfBirth = req.DateOfBirth

	var author *entities.Author
	if req.EmergingAuthor {
		user.UserRole = entities.RoleAuthor
		user.MarkDisabled(nil, s.now())
		author = &entities.Author{
			Name:           req.Name,
			FirstLastName:  req.FirstLastName,
			SecondLastName: req.SecondLastName,
			DateOfBirth:    user.DateOfBirth,
		}
	}

	if err := s.users.CreateWithAuthor(ctx, user, author); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateAdmin inserts an enabled ADMIN account.
func (s *Service) CreateAdmin(ctx context.Context, email, username, password string) (*entities.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateIdentity(email, username); err != nil {
		return nil, err
	}
	if taken, err := s.users.EmailTaken(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailExists
	}
	if username != "" {
		if taken, err := s.users.UsernameTaken(ctx, username); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrUsernameExists
		}
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &entities.User{Email: email, Password: hash, UserRole: entities.RoleAdmin, Name: "Admin"}
	if username != "" {
		user.Username = &username
	}
	if err := s.users.Insert(ctx, user, nil); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin unless the email is registered.
func (s *Service) EnsureAdmin(ctx context.Context, email, username, password string) (*entities.User, bool, error) {
	existing, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, crud.ErrNotFound) {
		return nil, false, err
	}
	user, err := s.CreateAdmin(ctx, email, username, password)
	return user, err == nil, err
}

func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.users.EmailTaken(ctx, strings.ToLower(email))
	return !taken, err
}

func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.users.UsernameTaken(ctx, username)
	return !taken, err
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*entities.User, error) {
	user, err := s.users.FindByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, crud.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.Password); err != nil {
		if !errors.Is(err, ErrInvalidPassword) {
			return nil, err
		}
		locked, recErr := s.users.RecordFailedLogin(ctx, user, s.lockoutPolicy(), now)
		if recErr != nil {
			return nil, fmt.Errorf("failed to record login attempt: %w", recErr)
		}
		if locked {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if user.Disabled {
		return nil, ErrUserDisabled
	}

	if err := s.users.RecordLogin(ctx, user, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}

func (s *Service) maxAttempts() int {
	if s.config.MaxLoginAttempts > 0 {
		return s.config.MaxLoginAttempts
	}
	return 5
}

func (s *Service) lockout() time.Duration {
	if s.config.LockoutDuration > 0 {
		return s.config.LockoutDuration
	}
	return 30 * time.Minute
}

func (s *Service) window() time.Duration {
	if s.config.RateLimitWindow > 0 {
		return s.config.RateLimitWindow
	}
	return 15 * time.Minute
}

func (s *Service) lockoutPolicy() users.LockoutPolicy {
	return users.LockoutPolicy{MaxAttempts: s.maxAttempts(), Window: s.window(), Lockout: s.lockout()}
}

// IssueToken signs a token for user and records it so it can be revoked.
func (s *Service) IssueToken(ctx context.Context, user *entities.User) (string, error) {
	token, expiresAt, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", err
	}
	if err := s.tokens.Store(ctx, HashToken(token), user.ID, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// ValidateToken resolves the user behind a bearer token. A disabled user is
// returned together with ErrUserDisabled.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	userID, err := s.issuer.Parse(token)
	if err != nil {
		return nil, err
	}

	valid, err := s.tokens.IsValid(ctx, HashToken(token), s.now())
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrInvalidToken
	}

	user, err := s.users.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, crud.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Disabled {
		return user, ErrUserDisabled
	}
	return user, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Invalidate(ctx, HashToken(token))
}

// RevokeUserTokens revokes every token issued to userID.
func (s *Service) RevokeUserTokens(ctx context.Context, userID uint) (int64, error) {
	return s.tokens.InvalidateForUser(ctx, userID)
}

// PurgeExpiredTokens deletes token records past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}

// ChangePassword verifies the current password before storing the new one.
func (s *Service) ChangePassword(ctx context.Context, user *entities.User, current, password, confirmation string, actor *uint) error {
	if password != confirmation {
		return ErrPasswordMismatch
	}
	if err := CheckPassword(current, user.Password); err != nil {
		return err
	}
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, user, hash, actor)
}
