package household

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/n-zngr/recipes-app/internal/model"
)

// Directory resolves users by email or id. Lookups return nil without
// error when no such user exists.
type Directory interface {
	ResolveByEmail(email string) (*model.User, error)
	GetByID(id int64) (*model.User, error)
}

// Store is the durable household record. Get returns nil without error for
// an unknown household. AtomicUpdate applies the mutator to a snapshot
// inside a single transaction and returns the committed state; a mutator
// error aborts the update and is returned unchanged.
type Store interface {
	Get(id int64) (*model.Snapshot, error)
	Create(name string, ownerID int64, memberIDs []int64) (*model.Snapshot, error)
	AtomicUpdate(id int64, mutate func(*model.Snapshot) error) (*model.Snapshot, error)
	ListForUser(userID int64) ([]model.Household, error)
}

// Service creates households, resolves invited emails, and executes role
// transitions and catalog edits under the roster invariants.
type Service struct {
	store  Store
	dir    Directory
	logger *slog.Logger
}

func NewService(store Store, dir Directory, logger *slog.Logger) *Service {
	return &Service{store: store, dir: dir, logger: logger}
}

// Create makes a new household owned by ownerID with the given member
// emails resolved to users. Resolution is all-or-nothing: if any email is
// unknown, nothing is persisted. The owner's own email in the list is
// silently dropped.
func (s *Service) Create(ownerID int64, name string, memberEmails []string) (*model.Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: household name is required", ErrValidation)
	}

	owner, err := s.dir.GetByID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup owner: %v", ErrUnavailable, err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: unknown user %d", ErrUnauthenticated, ownerID)
	}

	memberIDs, err := s.resolveEmails(memberEmails)
	if err != nil {
		return nil, err
	}

	// Dedupe and drop the owner; the owner is never also a member.
	var ids []int64
	for _, id := range memberIDs {
		if id != ownerID && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	snap, err := s.store.Create(name, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: create household: %v", ErrUnavailable, err)
	}

	s.logger.Info("household created", "household_id", snap.ID, "owner_id", ownerID, "members", len(ids))
	return snap, nil
}

// resolveEmails maps each email to a user id, failing the whole batch on
// the first unresolvable address.
func (s *Service) resolveEmails(emails []string) ([]int64, error) {
	ids := make([]int64, len(emails))
	var g errgroup.Group
	for i, email := range emails {
		g.Go(func() error {
			u, err := s.dir.ResolveByEmail(strings.TrimSpace(email))
			if err != nil {
				return fmt.Errorf("%w: resolve %q: %v", ErrUnavailable, email, err)
			}
			if u == nil {
				return fmt.Errorf("%w: no user with email %q", ErrNotFound, email)
			}
			ids[i] = u.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddMember resolves an email and appends the user to the roster as a
// member. Any in-household role of the requester suffices.
func (s *Service) AddMember(householdID, requestingUserID int64, email string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, fmt.Errorf("%w: email is required", ErrValidation)
	}

	u, err := s.dir.ResolveByEmail(email)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve %q: %v", ErrUnavailable, email, err)
	}
	if u == nil {
		return 0, fmt.Errorf("%w: no user with email %q", ErrNotFound, email)
	}

	_, err = s.update(householdID, func(snap *model.Snapshot) error {
		if !Can(RoleOf(snap, requestingUserID), ActionAddMember) {
			return fmt.Errorf("%w: user %d is not in household %d", ErrForbidden, requestingUserID, householdID)
		}
		if RoleOf(snap, u.ID) != model.RoleNone {
			return fmt.Errorf("%w: user %d already belongs to household %d", ErrConflict, u.ID, householdID)
		}
		snap.Members = append(snap.Members, model.HouseholdMember{
			HouseholdID: snap.ID,
			UserID:      u.ID,
			Role:        model.RoleMember,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("member added", "household_id", householdID, "user_id", u.ID)
	return u.ID, nil
}

// Promote moves a user from member to admin. Promotion is only defined
// from the member state: promoting an admin (or a stranger) is NotFound.
func (s *Service) Promote(householdID, userID int64) error {
	_, err := s.update(householdID, func(snap *model.Snapshot) error {
		for i, m := range snap.Members {
			if m.UserID == userID && m.Role == model.RoleMember {
				snap.Members[i].Role = model.RoleAdmin
				return nil
			}
		}
		return fmt.Errorf("%w: user %d is not a member of household %d", ErrNotFound, userID, householdID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("member promoted", "household_id", householdID, "user_id", userID)
	return nil
}

// Demote removes a user from the household entirely, whatever role they
// hold. The owner can never be demoted. Demoting a user who is not in the
// household leaves the roster unchanged.
func (s *Service) Demote(householdID, userID int64) error {
	_, err := s.update(householdID, func(snap *model.Snapshot) error {
		if RoleOf(snap, userID) == model.RoleOwner {
			return fmt.Errorf("%w: the owner of household %d cannot be demoted", ErrForbidden, householdID)
		}
		snap.Members = slices.DeleteFunc(snap.Members, func(m model.HouseholdMember) bool {
			return m.UserID == userID
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("member removed", "household_id", householdID, "user_id", userID)
	return nil
}

// RosterUser is one roster entry with its email, for display.
type RosterUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Roster is the owner/admins/members view of a household at a single
// consistent point in time.
type Roster struct {
	HouseholdID int64        `json:"household_id"`
	Name        string       `json:"name"`
	Owner       RosterUser   `json:"owner"`
	Admins      []RosterUser `json:"admins"`
	Members     []RosterUser `json:"members"`
}

// GetRoster returns the household roster with emails. The requester must
// hold some role in the household.
func (s *Service) GetRoster(householdID, requestingUserID int64) (*Roster, error) {
	snap, err := s.snapshotFor(householdID, requestingUserID, ActionViewRoster)
	if err != nil {
		return nil, err
	}

	roster := &Roster{
		HouseholdID: snap.ID,
		Name:        snap.Name,
		Admins:      []RosterUser{},
		Members:     []RosterUser{},
	}
	for _, m := range snap.Members {
		u, err := s.dir.GetByID(m.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup user %d: %v", ErrUnavailable, m.UserID, err)
		}
		entry := RosterUser{ID: m.UserID}
		if u != nil {
			entry.Email = u.Email
		}
		switch m.Role {
		case model.RoleOwner:
			roster.Owner = entry
		case model.RoleAdmin:
			roster.Admins = append(roster.Admins, entry)
		default:
			roster.Members = append(roster.Members, entry)
		}
	}
	return roster, nil
}

// IsAdmin reports whether the user holds the owner or admin role.
func (s *Service) IsAdmin(householdID, userID int64) (bool, error) {
	snap, err := s.get(householdID)
	if err != nil {
		return false, err
	}
	return IsElevated(RoleOf(snap, userID)), nil
}

// RoleFor returns the user's role in the household.
func (s *Service) RoleFor(householdID, userID int64) (model.Role, error) {
	snap, err := s.get(householdID)
	if err != nil {
		return model.RoleNone, err
	}
	return RoleOf(snap, userID), nil
}

// ListIngredients returns the household catalog in insertion order.
func (s *Service) ListIngredients(householdID, userID int64) ([]model.Ingredient, error) {
	snap, err := s.snapshotFor(householdID, userID, ActionViewIngredients)
	if err != nil {
		return nil, err
	}
	if snap.Ingredients == nil {
		return []model.Ingredient{}, nil
	}
	return snap.Ingredients, nil
}

// AddIngredient appends a named ingredient to the household catalog.
// Names are unique within a household, compared case-sensitively.
func (s *Service) AddIngredient(householdID, userID int64, name string) (*model.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: ingredient name is required", ErrValidation)
	}

	snap, err := s.update(householdID, func(snap *model.Snapshot) error {
		if !Can(RoleOf(snap, userID), ActionAddIngredient) {
			return fmt.Errorf("%w: user %d is not in household %d", ErrForbidden, userID, householdID)
		}
		for _, ing := range snap.Ingredients {
			if ing.Name == name {
				return fmt.Errorf("%w: ingredient %q already exists in household %d", ErrConflict, name, householdID)
			}
		}
		snap.Ingredients = append(snap.Ingredients, model.Ingredient{
			HouseholdID: snap.ID,
			Name:        name,
			AddedBy:     &userID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range snap.Ingredients {
		if snap.Ingredients[i].Name == name {
			s.logger.Info("ingredient added", "household_id", householdID, "ingredient_id", snap.Ingredients[i].ID)
			return &snap.Ingredients[i], nil
		}
	}
	return nil, fmt.Errorf("%w: ingredient %q missing after insert", ErrUnavailable, name)
}

// HouseholdsFor lists the households the user belongs to.
func (s *Service) HouseholdsFor(userID int64) ([]model.Household, error) {
	hs, err := s.store.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list households: %v", ErrUnavailable, err)
	}
	if hs == nil {
		hs = []model.Household{}
	}
	return hs, nil
}

func (s *Service) get(householdID int64) (*model.Snapshot, error) {
	snap, err := s.store.Get(householdID)
	if err != nil {
		return nil, fmt.Errorf("%w: get household %d: %v", ErrUnavailable, householdID, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: household %d", ErrNotFound, householdID)
	}
	return snap, nil
}

func (s *Service) snapshotFor(householdID, userID int64, action Action) (*model.Snapshot, error) {
	snap, err := s.get(householdID)
	if err != nil {
		return nil, err
	}
	if !Can(RoleOf(snap, userID), action) {
		return nil, fmt.Errorf("%w: user %d is not in household %d", ErrForbidden, userID, householdID)
	}
	return snap, nil
}

func (s *Service) update(householdID int64, mutate func(*model.Snapshot) error) (*model.Snapshot, error) {
	snap, err := s.store.AtomicUpdate(householdID, mutate)
	if err != nil {
		if isKind(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update household %d: %v", ErrUnavailable, householdID, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: household %d", ErrNotFound, householdID)
	}
	return snap, nil
}

func isKind(err error) bool {
	for _, kind := range []error{ErrUnauthenticated, ErrNotFound, ErrConflict, ErrForbidden, ErrValidation, ErrUnavailable} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
