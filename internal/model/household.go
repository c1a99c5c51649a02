package model

import "time"

// Role is a user's role within a single household.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleNone   Role = ""
)

type Household struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HouseholdMember struct {
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type Ingredient struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	AddedBy     *int64    `json:"added_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Snapshot is one household's roster and ingredient catalog read at a
// single consistent point in time. Ingredients are in insertion order.
type Snapshot struct {
	Household
	Members     []HouseholdMember `json:"members"`
	Ingredients []Ingredient      `json:"ingredients"`
}

// Clone returns a deep copy, so a mutator can edit the copy while the
// store diffs it against the original.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{Household: s.Household}
	c.Members = make([]HouseholdMember, len(s.Members))
	copy(c.Members, s.Members)
	c.Ingredients = make([]Ingredient, len(s.Ingredients))
	copy(c.Ingredients, s.Ingredients)
	return c
}

// OwnerID returns the user id of the household owner, or 0 if the roster
// has no owner row.
func (s *Snapshot) OwnerID() int64 {
	for _, m := range s.Members {
		if m.Role == RoleOwner {
			return m.UserID
		}
	}
	return 0
}

// UserIDs returns the ids of every user in the household, in roster order.
func (s *Snapshot) UserIDs() []int64 {
	ids := make([]int64, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
