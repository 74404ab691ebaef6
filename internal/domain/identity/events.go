package identity

import (
	"github.com/clearbook/backend/internal/domain/shared"
)

const (
	AggregateTypeTenant = "Tenant"
	AggregateTypeUser   = "User"

	EventTypeTenantRegistered    = "TenantRegistered"
	EventTypeUserCreated         = "UserCreated"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserRolesChanged    = "UserRolesChanged"
	EventTypeUserActivated       = "UserActivated"
	EventTypeUserDeactivated     = "UserDeactivated"
	EventTypeUserLocked          = "UserLocked"
)

// TenantEvent is raised for tenant lifecycle changes.
type TenantEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

func newTenantEvent(eventType string, t *Tenant) *TenantEvent {
	return &TenantEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTenant, t.ID, t.ID),
		Code:            t.Code,
		Name:            t.Name,
	}
}

// UserEvent is raised for user lifecycle changes. It never carries the
// password hash.
type UserEvent struct {
	shared.BaseDomainEvent
	Username string     `json:"username"`
	Status   UserStatus `json:"status"`
	RoleIDs  []string   `json:"role_ids,omitempty"`
}

func newUserEvent(eventType string, u *User) *UserEvent {
	roles := make([]string, 0, len(u.RoleIDs))
	for _, id := range u.RoleIDs {
		roles = append(roles, id.String())
	}
	return &UserEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeUser, u.ID, u.TenantID),
		Username:        u.Username,
		Status:          u.Status,
		RoleIDs:         roles,
	}
}
