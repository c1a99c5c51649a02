package household

import (
	"testing"

	"github.com/n-zngr/recipes-app/internal/model"
)

func snapWith(members ...model.HouseholdMember) *model.Snapshot {
	s := &model.Snapshot{}
	s.ID = 1
	s.Members = members
	return s
}

func TestRoleOf(t *testing.T) {
	snap := snapWith(
		model.HouseholdMember{UserID: 1, Role: model.RoleOwner},
		model.HouseholdMember{UserID: 2, Role: model.RoleAdmin},
		model.HouseholdMember{UserID: 3, Role: model.RoleMember},
	)

	tests := []struct {
		userID int64
		want   model.Role
	}{
		{1, model.RoleOwner},
		{2, model.RoleAdmin},
		{3, model.RoleMember},
		{4, model.RoleNone},
	}
	for _, tt := range tests {
		if got := RoleOf(snap, tt.userID); got != tt.want {
			t.Errorf("RoleOf(%d) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}

func TestRoleOfHighestWins(t *testing.T) {
	// A user appearing in several roster rows holds the strongest role
	snap := snapWith(
		model.HouseholdMember{UserID: 1, Role: model.RoleMember},
		model.HouseholdMember{UserID: 1, Role: model.RoleOwner},
		model.HouseholdMember{UserID: 1, Role: model.RoleAdmin},
	)
	if got := RoleOf(snap, 1); got != model.RoleOwner {
		t.Errorf("RoleOf = %q, want owner", got)
	}
}

func TestCanRequiresMembership(t *testing.T) {
	actions := []Action{
		ActionViewRoster, ActionViewIngredients, ActionAddIngredient,
		ActionAddMember, ActionPromote, ActionDemote,
	}
	for _, a := range actions {
		if Can(model.RoleNone, a) {
			t.Errorf("Can(none, %d) = true, want false", a)
		}
		if !Can(model.RoleMember, a) {
			t.Errorf("Can(member, %d) = false, want true", a)
		}
		if !Can(model.RoleAdmin, a) {
			t.Errorf("Can(admin, %d) = false, want true", a)
		}
		if !Can(model.RoleOwner, a) {
			t.Errorf("Can(owner, %d) = false, want true", a)
		}
	}
}

func TestIsElevated(t *testing.T) {
	tests := []struct {
		role model.Role
		want bool
	}{
		{model.RoleOwner, true},
		{model.RoleAdmin, true},
		{model.RoleMember, false},
		{model.RoleNone, false},
	}
	for _, tt := range tests {
		if got := IsElevated(tt.role); got != tt.want {
			t.Errorf("IsElevated(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
