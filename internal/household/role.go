package household

import "github.com/n-zngr/recipes-app/internal/model"

// Action is an operation class gated by a user's role.
type Action int

const (
	ActionViewRoster Action = iota
	ActionViewIngredients
	ActionAddIngredient
	ActionAddMember
	ActionPromote
	ActionDemote
)

// RoleOf computes a user's role from a roster snapshot. Owner takes
// precedence over admin, admin over member.
func RoleOf(snap *model.Snapshot, userID int64) model.Role {
	role := model.RoleNone
	for _, m := range snap.Members {
		if m.UserID != userID {
			continue
		}
		if roleRank(m.Role) > roleRank(role) {
			role = m.Role
		}
	}
	return role
}

// Can reports whether a role may perform an action. Every action is open
// to any in-household role: role mutations are not restricted to the owner
// or admins, matching how the deployed endpoints behave. Admin-only
// surfaces gate on IsElevated instead.
func Can(role model.Role, _ Action) bool {
	return role != model.RoleNone
}

// IsElevated reports whether the role passes the admin check.
func IsElevated(role model.Role) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}

func roleRank(r model.Role) int {
	switch r {
	case model.RoleOwner:
		return 3
	case model.RoleAdmin:
		return 2
	case model.RoleMember:
		return 1
	default:
		return 0
	}
}
