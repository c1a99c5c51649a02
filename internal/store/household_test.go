package store

import (
	"errors"
	"testing"

	"github.com/n-zngr/recipes-app/internal/database"
	"github.com/n-zngr/recipes-app/internal/model"
)

func setupHouseholdTestDB(t *testing.T) (*HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewUserStore(db)
}

func mustCreateUser(t *testing.T, users *UserStore, email string) *model.User {
	t.Helper()
	u, err := users.Create(email, "x")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func TestHouseholdCreate(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")
	bob := mustCreateUser(t, users, "bob@example.com")

	snap, err := households.Create("Smith Family", owner.ID, []int64{bob.ID})
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if snap.Name != "Smith Family" {
		t.Errorf("name = %q, want %q", snap.Name, "Smith Family")
	}
	if len(snap.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(snap.Members))
	}
	if snap.OwnerID() != owner.ID {
		t.Errorf("owner = %d, want %d", snap.OwnerID(), owner.ID)
	}
}

func TestHouseholdCreateUnknownMemberRollsBack(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")

	// 999 violates the member foreign key, so the whole insert must fail
	_, err := households.Create("Broken", owner.ID, []int64{999})
	if err == nil {
		t.Fatal("expected error for unknown member")
	}

	hs, err := households.ListForUser(owner.ID)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(hs) != 0 {
		t.Errorf("households = %d, want 0 after rollback", len(hs))
	}
}

func TestHouseholdGetNotFound(t *testing.T) {
	households, _ := setupHouseholdTestDB(t)

	snap, err := households.Get(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap != nil {
		t.Error("expected nil for nonexistent household")
	}
}

func TestAtomicUpdateCommitsMutation(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")
	bob := mustCreateUser(t, users, "bob@example.com")
	snap, _ := households.Create("Smith Family", owner.ID, nil)

	updated, err := households.AtomicUpdate(snap.ID, func(s *model.Snapshot) error {
		s.Members = append(s.Members, model.HouseholdMember{
			HouseholdID: s.ID,
			UserID:      bob.ID,
			Role:        model.RoleMember,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("atomic update: %v", err)
	}
	if len(updated.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(updated.Members))
	}

	reloaded, _ := households.Get(snap.ID)
	if len(reloaded.Members) != 2 {
		t.Errorf("persisted members = %d, want 2", len(reloaded.Members))
	}
}

func TestAtomicUpdateMutatorErrorAborts(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")
	snap, _ := households.Create("Smith Family", owner.ID, nil)

	sentinel := errors.New("rejected")
	_, err := households.AtomicUpdate(snap.ID, func(s *model.Snapshot) error {
		s.Name = "changed"
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want the mutator error unchanged", err)
	}

	reloaded, _ := households.Get(snap.ID)
	if reloaded.Name != "Smith Family" {
		t.Errorf("name = %q, want unchanged", reloaded.Name)
	}
}

func TestAtomicUpdateMissingHousehold(t *testing.T) {
	households, _ := setupHouseholdTestDB(t)

	snap, err := households.AtomicUpdate(42, func(s *model.Snapshot) error {
		t.Fatal("mutator should not run for a missing household")
		return nil
	})
	if err != nil {
		t.Fatalf("atomic update: %v", err)
	}
	if snap != nil {
		t.Error("expected nil snapshot for missing household")
	}
}

func TestAtomicUpdateRoleChange(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")
	bob := mustCreateUser(t, users, "bob@example.com")
	snap, _ := households.Create("Smith Family", owner.ID, []int64{bob.ID})

	updated, err := households.AtomicUpdate(snap.ID, func(s *model.Snapshot) error {
		for i := range s.Members {
			if s.Members[i].UserID == bob.ID {
				s.Members[i].Role = model.RoleAdmin
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("atomic update: %v", err)
	}
	for _, m := range updated.Members {
		if m.UserID == bob.ID && m.Role != model.RoleAdmin {
			t.Errorf("role = %q, want admin", m.Role)
		}
	}
}

func TestIngredientsKeepInsertionOrder(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")
	snap, _ := households.Create("Smith Family", owner.ID, nil)

	names := []string{"flour", "sugar", "butter"}
	for _, name := range names {
		_, err := households.AtomicUpdate(snap.ID, func(s *model.Snapshot) error {
			s.Ingredients = append(s.Ingredients, model.Ingredient{
				HouseholdID: s.ID,
				Name:        name,
			})
			return nil
		})
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	reloaded, _ := households.Get(snap.ID)
	if len(reloaded.Ingredients) != 3 {
		t.Fatalf("ingredients = %d, want 3", len(reloaded.Ingredients))
	}
	for i, name := range names {
		if reloaded.Ingredients[i].Name != name {
			t.Errorf("ingredients[%d] = %q, want %q", i, reloaded.Ingredients[i].Name, name)
		}
	}
}

func TestIngredientNamesAreCaseSensitive(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")
	snap, _ := households.Create("Smith Family", owner.ID, nil)

	for _, name := range []string{"Flour", "flour"} {
		_, err := households.AtomicUpdate(snap.ID, func(s *model.Snapshot) error {
			s.Ingredients = append(s.Ingredients, model.Ingredient{HouseholdID: s.ID, Name: name})
			return nil
		})
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	reloaded, _ := households.Get(snap.ID)
	if len(reloaded.Ingredients) != 2 {
		t.Errorf("ingredients = %d, want 2 distinct names", len(reloaded.Ingredients))
	}
}

func TestListForUser(t *testing.T) {
	households, users := setupHouseholdTestDB(t)
	owner := mustCreateUser(t, users, "owner@example.com")
	bob := mustCreateUser(t, users, "bob@example.com")

	households.Create("Zeta House", owner.ID, []int64{bob.ID})
	households.Create("Alpha House", owner.ID, nil)

	hs, err := households.ListForUser(owner.ID)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(hs) != 2 {
		t.Fatalf("households = %d, want 2", len(hs))
	}
	if hs[0].Name != "Alpha House" {
		t.Errorf("first = %q, want alphabetical order", hs[0].Name)
	}

	bobHs, _ := households.ListForUser(bob.ID)
	if len(bobHs) != 1 {
		t.Errorf("bob's households = %d, want 1", len(bobHs))
	}
}
