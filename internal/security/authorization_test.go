package security

import "testing"

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(nil)

	if !as.HasPermission(RoleAdmin, PermDeleteRestaurant) {
		t.Error("admin should be able to delete restaurants")
	}
	if as.HasPermission(RoleManager, PermDeleteRestaurant) {
		t.Error("manager should not be able to delete restaurants")
	}
	if as.HasPermission(RoleHost, PermManageTables) {
		t.Error("host should not manage tables")
	}
	if !as.HasPermission(RoleHost, PermTransitionReservation) {
		t.Error("host should transition reservations")
	}
}

func TestValidatePermission(t *testing.T) {
	as := NewAuthorizationService(nil)

	if err := as.ValidatePermission(RoleManager, PermManageTables); err != nil {
		t.Errorf("expected manager to manage tables, got %v", err)
	}
	if err := as.ValidatePermission(RoleHost, PermManageUsers); err == nil {
		t.Error("expected host manage_users to be denied")
	}
}

func TestValidateRestaurantAccess(t *testing.T) {
	as := NewAuthorizationService(nil)

	if err := as.ValidateRestaurantAccess("rest-1", "rest-1"); err != nil {
		t.Errorf("expected same-restaurant access to pass, got %v", err)
	}
	if err := as.ValidateRestaurantAccess("rest-1", "rest-2"); err == nil {
		t.Error("expected cross-restaurant access to be denied")
	}
}

func TestResourceAccess(t *testing.T) {
	as := NewAuthorizationServiceV2(nil)

	perm := ResourcePermission{
		ResourceType: ResourceReservation,
		ResourceID:   "slot-1",
		RestaurantID: "rest-1",
		Action:       ActionWrite,
	}

	if err := as.ValidateResourceAccess("rest-1", RoleManager, perm); err != nil {
		t.Errorf("expected manager write on own restaurant to pass, got %v", err)
	}
	if err := as.ValidateResourceAccess("rest-2", RoleManager, perm); err == nil {
		t.Error("expected manager on another restaurant to be denied")
	}
	if err := as.ValidateResourceAccess("rest-2", RoleAdmin, perm); err != nil {
		t.Errorf("admin should bypass restaurant confinement, got %v", err)
	}

	del := perm
	del.Action = ActionDelete
	if err := as.ValidateResourceAccess("rest-1", RoleHost, del); err == nil {
		t.Error("expected host delete to be denied")
	}
	if err := as.ValidateResourceAccess("rest-1", RoleManager, del); err != nil {
		t.Errorf("expected manager delete to pass, got %v", err)
	}
}
