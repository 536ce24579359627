package security

import (
	"fmt"
	"log/slog"
)

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceReservation ResourceType = "reservation"
	ResourceTable       ResourceType = "table"
	ResourceHold        ResourceType = "hold"
	ResourceUser        ResourceType = "user"
)

// Action identifies what operation is being performed
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// ResourcePermission checks fine-grained permissions on a specific resource
type ResourcePermission struct {
	ResourceType ResourceType
	ResourceID   string
	RestaurantID string // Restaurant the resource belongs to
	Action       Action
}

// AuthorizationServiceV2 extends AuthorizationService with resource-level checks
type AuthorizationServiceV2 struct {
	logger *slog.Logger
}

// NewAuthorizationServiceV2 creates a new resource-aware authorization service
func NewAuthorizationServiceV2(logger *slog.Logger) *AuthorizationServiceV2 {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationServiceV2{logger: logger}
}

// ValidateResourceAccess checks if a staff member may act on a specific
// resource. Admins operate across restaurants; everyone else is confined to
// the restaurant their account is bound to.
func (a *AuthorizationServiceV2) ValidateResourceAccess(
	staffRestaurantID string,
	role Role,
	perm ResourcePermission,
) error {
	if role == RoleAdmin {
		return nil
	}

	if perm.RestaurantID != staffRestaurantID {
		a.logger.Warn("resource access denied",
			slog.String("staff_restaurant", staffRestaurantID),
			slog.String("resource_id", perm.ResourceID),
			slog.String("resource_type", string(perm.ResourceType)),
			slog.String("resource_restaurant", perm.RestaurantID),
		)
		return fmt.Errorf("access denied: %s belongs to another restaurant", perm.ResourceType)
	}

	// Hosts may not delete, only read and write
	if role == RoleHost && perm.Action == ActionDelete {
		return fmt.Errorf("access denied: %s role cannot delete %s", role, perm.ResourceType)
	}

	return nil
}
