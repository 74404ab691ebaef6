package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/clearbook/backend/internal/domain/identity"
)

type TenantModel struct {
	AggregateModel
	Code                 string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                 string `gorm:"type:varchar(200);not null"`
	BaseCurrency         string `gorm:"type:char(3);not null"`
	FiscalYearStartMonth int    `gorm:"not null"`
	Status               string `gorm:"type:varchar(20);not null"`
}

func (TenantModel) TableName() string { return "tenants" }

func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot:    m.toAggregate(),
		Code:                 m.Code,
		Name:                 m.Name,
		BaseCurrency:         m.BaseCurrency,
		FiscalYearStartMonth: m.FiscalYearStartMonth,
		Status:               identity.TenantStatus(m.Status),
	}
}

func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{
		Code:                 t.Code,
		Name:                 t.Name,
		BaseCurrency:         t.BaseCurrency,
		FiscalYearStartMonth: t.FiscalYearStartMonth,
		Status:               string(t.Status),
	}
	m.fromAggregate(t.BaseAggregateRoot)
	return m
}

// RoleModel stores permission codes as a JSON array.
type RoleModel struct {
	TenantAggregateModel
	Code        string                      `gorm:"type:varchar(50);not null"`
	Name        string                      `gorm:"type:varchar(100);not null"`
	Description string                      `gorm:"type:varchar(500)"`
	Permissions datatypes.JSONSlice[string] `gorm:"not null"`
	IsSystem    bool                        `gorm:"not null;default:false"`
}

func (RoleModel) TableName() string { return "roles" }

func (m *RoleModel) ToDomain() *identity.Role {
	return &identity.Role{
		TenantAggregateRoot: m.toTenantAggregate(),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
		Permissions:         append([]string(nil), m.Permissions...),
		IsSystem:            m.IsSystem,
	}
}

func RoleModelFromDomain(r *identity.Role) *RoleModel {
	m := &RoleModel{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Permissions: datatypes.NewJSONSlice(append([]string{}, r.Permissions...)),
		IsSystem:    r.IsSystem,
	}
	m.fromTenantAggregate(r.TenantAggregateRoot)
	return m
}

type UserModel struct {
	TenantAggregateModel
	Username       string     `gorm:"type:varchar(100);not null"`
	Email          string     `gorm:"type:varchar(200)"`
	DisplayName    string     `gorm:"type:varchar(200)"`
	PasswordHash   string     `gorm:"type:varchar(255);not null"`
	Status         string     `gorm:"type:varchar(20);not null"`
	FailedAttempts int        `gorm:"not null;default:0"`
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	Roles          []UserRoleModel `gorm:"foreignKey:UserID"`
}

func (UserModel) TableName() string { return "users" }

// UserRoleModel is the user/role join table.
type UserRoleModel struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (UserRoleModel) TableName() string { return "user_roles" }

func (m *UserModel) ToDomain() *identity.User {
	roleIDs := make([]uuid.UUID, 0, len(m.Roles))
	for _, r := range m.Roles {
		roleIDs = append(roleIDs, r.RoleID)
	}
	return &identity.User{
		TenantAggregateRoot: m.toTenantAggregate(),
		Username:            m.Username,
		Email:               m.Email,
		DisplayName:         m.DisplayName,
		PasswordHash:        m.PasswordHash,
		Status:              identity.UserStatus(m.Status),
		RoleIDs:             roleIDs,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
		LastLoginAt:         m.LastLoginAt,
	}
}

func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:       u.Username,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		PasswordHash:   u.PasswordHash,
		Status:         string(u.Status),
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
		LastLoginAt:    u.LastLoginAt,
	}
	m.fromTenantAggregate(u.TenantAggregateRoot)
	for _, id := range u.RoleIDs {
		m.Roles = append(m.Roles, UserRoleModel{UserID: u.ID, RoleID: id, TenantID: u.TenantID})
	}
	return m
}
