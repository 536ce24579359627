package security

import (
	"fmt"
	"log/slog"
)

// Role represents a staff role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleHost    Role = "host"
)

// Permission represents an action permission
type Permission string

const (
	PermManageRestaurant      Permission = "manage_restaurant"
	PermDeleteRestaurant      Permission = "delete_restaurant"
	PermManageTables          Permission = "manage_tables"
	PermBookReservation       Permission = "book_reservation"
	PermTransitionReservation Permission = "transition_reservation"
	PermPlaceHold             Permission = "place_hold"
	PermManageUsers           Permission = "manage_users"
	PermViewAuditLog          Permission = "view_audit_log"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermManageRestaurant,
		PermDeleteRestaurant,
		PermManageTables,
		PermBookReservation,
		PermTransitionReservation,
		PermPlaceHold,
		PermManageUsers,
		PermViewAuditLog,
	},
	RoleManager: {
		PermManageRestaurant,
		PermManageTables,
		PermBookReservation,
		PermTransitionReservation,
		PermPlaceHold,
		PermViewAuditLog,
	},
	RoleHost: {
		PermBookReservation,
		PermTransitionReservation,
		PermPlaceHold,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role Role) []Permission {
	return RolePermissions[role]
}

// ValidateRestaurantAccess checks if a staff member belongs to a restaurant
func (as *AuthorizationService) ValidateRestaurantAccess(userRestaurantID, requestedRestaurantID string) error {
	if userRestaurantID != requestedRestaurantID {
		as.logger.Warn("restaurant access denied",
			slog.String("user_restaurant", userRestaurantID),
			slog.String("requested_restaurant", requestedRestaurantID),
		)
		return fmt.Errorf("access denied: invalid restaurant")
	}
	return nil
}
