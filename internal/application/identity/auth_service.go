package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/logger"
)

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid tenant, username or password")

// AuthService handles authentication operations
type AuthService struct {
	repos      appshared.Repositories
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     *appshared.EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	repos appshared.Repositories,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events *appshared.EventDispatcher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		repos:      repos,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates a user within a tenant and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	log := logger.Enrich(ctx, s.logger).With(
		zap.String("tenant_code", input.TenantCode),
		zap.String("username", input.Username),
	)
	log.Info("Login attempt", zap.String("ip", input.IP))

	tenant, err := s.repos.Tenants().FindByCode(ctx, strings.ToLower(strings.TrimSpace(input.TenantCode)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("Tenant not found during login")
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !tenant.IsActive() {
		log.Warn("Login attempt for suspended tenant")
		return nil, shared.NewDomainError("TENANT_SUSPENDED", "Tenant is suspended")
	}

	user, err := s.repos.Users().FindByUsername(ctx, tenant.ID, strings.ToLower(strings.TrimSpace(input.Username)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("User not found during login")
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if !user.CanLogin(now) {
		if user.Status == identity.UserStatusDeactivated {
			log.Warn("Login attempt for deactivated account")
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		}
		log.Warn("Login attempt for locked account")
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later or contact an administrator")
	}

	if user.Status == identity.UserStatusLocked {
		// lock expired; start counting failures again
		_ = user.Unlock()
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(now)
		if err := s.repos.Users().Save(ctx, user); err != nil {
			return nil, err
		}
		s.events.Dispatch(ctx, shared.CollectEvents(user))
		if locked {
			log.Warn("Account locked after failed logins", zap.Int("attempts", user.FailedAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed attempts. Account is locked for 30 minutes")
		}
		log.Warn("Invalid password", zap.Int("attempts", user.FailedAttempts))
		return nil, errInvalidCredentials
	}

	user.RecordLoginSuccess(now)
	if err := s.repos.Users().Save(ctx, user); err != nil {
		return nil, err
	}

	sub, err := s.subject(ctx, s.repos, user)
	if err != nil {
		return nil, err
	}
	tokens, err := s.jwtService.Issue(sub)
	if err != nil {
		return nil, err
	}
	log.Info("Login successful", zap.String("user_id", user.ID.String()))
	return &LoginResult{
		Tokens: tokens,
		User:   toUserInfo(user, sub.Permissions),
		Tenant: toTenantInfo(tenant),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. Permissions are
// reloaded so role changes take effect. The old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	tenant, err := s.repos.Tenants().FindByID(ctx, claims.TenantUUID())
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	if !tenant.IsActive() {
		return nil, shared.NewDomainError("TENANT_SUSPENDED", "Tenant is suspended")
	}
	user, err := s.repos.Users().FindByIDForTenant(ctx, tenant.ID, claims.UserUUID())
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	if !user.CanLogin(s.now()) {
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked or deactivated")
	}

	sub, err := s.subject(ctx, s.repos, user)
	if err != nil {
		return nil, err
	}
	tokens, err := s.jwtService.Refresh(refreshToken, sub)
	if err != nil {
		return nil, tokenError(err)
	}
	if s.blacklist != nil {
		if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
			logger.Enrich(ctx, s.logger).Warn("revoke rotated refresh token", zap.Error(err))
		}
	}
	return tokens, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil || input.AccessClaims == nil {
		return nil
	}
	now := s.now()
	if err := s.blacklist.Revoke(ctx, input.AccessClaims.ID, input.AccessClaims.RemainingTTL(now)); err != nil {
		return err
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.AccessClaims.UserID {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(now)); err != nil {
				return err
			}
		}
	}
	logger.Enrich(ctx, s.logger).Info("Logout", zap.String("user_id", input.AccessClaims.UserID))
	return nil
}

// IsRevoked reports whether the token was revoked by logout, refresh
// rotation or a password change. Used by the auth middleware.
func (s *AuthService) IsRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	err := s.checkRevoked(ctx, claims)
	if errors.Is(err, shared.ErrUnauthorized) {
		return true, nil
	}
	return false, err
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return shared.NewDomainError("UNAUTHORIZED", "Token has been revoked")
	}
	return nil
}

// GetCurrentUser returns the user with the permissions of its roles
func (s *AuthService) GetCurrentUser(ctx context.Context, tenantID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.repos.Users().FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	perms, err := permissionsOf(ctx, s.repos, tenantID, user.RoleIDs)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user, perms)
	return &info, nil
}

// ChangePassword verifies the old password, stores the new one and revokes
// every token issued to the user so far.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.repos.Users().FindByIDForTenant(ctx, input.TenantID, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.repos.Users().Save(ctx, user); err != nil {
		return err
	}
	s.events.Dispatch(ctx, shared.CollectEvents(user))
	if s.blacklist != nil {
		if err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.jwtService.RefreshTokenTTL()); err != nil {
			return err
		}
	}
	logger.Enrich(ctx, s.logger).Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) subject(ctx context.Context, r appshared.Repositories, user *identity.User) (auth.Subject, error) {
	perms, err := permissionsOf(ctx, r, user.TenantID, user.RoleIDs)
	if err != nil {
		return auth.Subject{}, err
	}
	return auth.Subject{
		TenantID:    user.TenantID,
		UserID:      user.ID,
		Username:    user.Username,
		RoleIDs:     user.RoleIDs,
		Permissions: perms,
	}, nil
}

// permissionsOf returns the sorted union of the roles' permissions.
func permissionsOf(ctx context.Context, r appshared.Repositories, tenantID uuid.UUID, roleIDs []uuid.UUID) ([]string, error) {
	if len(roleIDs) == 0 {
		return []string{}, nil
	}
	roles, err := r.Roles().FindByIDs(ctx, tenantID, roleIDs)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	perms := make([]string, 0)
	for _, role := range roles {
		for _, p := range role.Permissions {
			if !seen[p] {
				seen[p] = true
				perms = append(perms, p)
			}
		}
	}
	sort.Strings(perms)
	return perms, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("REFRESH_LIMIT_EXCEEDED", "Session has reached its refresh limit, please log in again")
	default:
		return shared.NewDomainError("INVALID_TOKEN", "Invalid token")
	}
}
