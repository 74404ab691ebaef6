package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusLocked      UserStatus = "locked"
	UserStatusDeactivated UserStatus = "deactivated"
)

const (
	// MaxFailedLogins locks the account after this many consecutive failures.
	MaxFailedLogins = 5
	// LockDuration is how long a locked account stays locked.
	LockDuration = 30 * time.Minute
)

// PasswordCost is the bcrypt cost used for new hashes.
var PasswordCost = 12

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterPattern   = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// User is a login identity within one tenant.
type User struct {
	shared.TenantAggregateRoot
	Username       string
	Email          string
	DisplayName    string
	PasswordHash   string
	Status         UserStatus
	RoleIDs        []uuid.UUID
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// NewUser creates an active user with a hashed password.
func NewUser(tenantID uuid.UUID, username, email, password string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Username:            strings.ToLower(strings.TrimSpace(username)),
		Email:               email,
		PasswordHash:        hash,
		Status:              UserStatusActive,
		RoleIDs:             make([]uuid.UUID, 0),
	}
	u.AddDomainEvent(newUserEvent(EventTypeUserCreated, u))
	return u, nil
}

// UpdateProfile changes email and display name.
func (u *User) UpdateProfile(email, displayName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > 100 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 100 characters")
	}
	u.Email = email
	u.DisplayName = displayName
	u.IncrementVersion()
	return nil
}

// ChangePassword verifies the old password before setting the new one.
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword replaces the password hash without checking the old one.
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.IncrementVersion()
	u.AddDomainEvent(newUserEvent(EventTypeUserPasswordChanged, u))
	return nil
}

// VerifyPassword reports whether password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetRoles replaces the role assignment, dropping duplicates.
func (u *User) SetRoles(roleIDs []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(roleIDs))
	unique := make([]uuid.UUID, 0, len(roleIDs))
	for _, rid := range roleIDs {
		if rid == uuid.Nil {
			return shared.NewDomainError("INVALID_ROLE_ID", "Role ID cannot be empty")
		}
		if !seen[rid] {
			seen[rid] = true
			unique = append(unique, rid)
		}
	}
	u.RoleIDs = unique
	u.IncrementVersion()
	u.AddDomainEvent(newUserEvent(EventTypeUserRolesChanged, u))
	return nil
}

// HasRole checks if user has a specific role
func (u *User) HasRole(roleID uuid.UUID) bool {
	for _, rid := range u.RoleIDs {
		if rid == roleID {
			return true
		}
	}
	return false
}

// Activate re-enables a deactivated or locked user.
func (u *User) Activate() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	}
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.IncrementVersion()
	u.AddDomainEvent(newUserEvent(EventTypeUserActivated, u))
	return nil
}

// Deactivate disables the user permanently until reactivated.
func (u *User) Deactivate() error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "User is already deactivated")
	}
	u.Status = UserStatusDeactivated
	u.IncrementVersion()
	u.AddDomainEvent(newUserEvent(EventTypeUserDeactivated, u))
	return nil
}

// Unlock clears a lock left by failed logins.
func (u *User) Unlock() error {
	if u.Status != UserStatusLocked {
		return shared.NewDomainError("NOT_LOCKED", "User is not locked")
	}
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.IncrementVersion()
	return nil
}

// RecordLoginSuccess resets the failure counter.
func (u *User) RecordLoginSuccess(at time.Time) {
	u.LastLoginAt = &at
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
	}
	u.IncrementVersion()
}

// RecordLoginFailure counts a failed attempt and returns true when it
// locked the account.
func (u *User) RecordLoginFailure(at time.Time) bool {
	u.FailedAttempts++
	u.IncrementVersion()
	if u.FailedAttempts >= MaxFailedLogins && u.Status == UserStatusActive {
		until := at.Add(LockDuration)
		u.Status = UserStatusLocked
		u.LockedUntil = &until
		u.AddDomainEvent(newUserEvent(EventTypeUserLocked, u))
		return true
	}
	return false
}

// IsLocked reports an unexpired lock.
func (u *User) IsLocked(now time.Time) bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || now.Before(*u.LockedUntil)
}

// CanLogin returns true if user can login
func (u *User) CanLogin(now time.Time) bool {
	if u.Status == UserStatusDeactivated {
		return false
	}
	return !u.IsLocked(now)
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be 3-100 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 || !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
