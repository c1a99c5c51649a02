package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/n-zngr/recipes-app/internal/model"
)

// maxBusyRetries bounds transparent retries on SQLITE_BUSY write conflicts.
const maxBusyRetries = 5

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	var role string
	err := scanner.Scan(&m.HouseholdID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Role = model.Role(role)
	return &m, nil
}

func scanIngredient(scanner interface{ Scan(...any) error }) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := scanner.Scan(&ing.ID, &ing.HouseholdID, &ing.Name, &ing.AddedBy, &ing.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

const memberCols = `household_id, user_id, role, created_at`
const ingredientCols = `id, household_id, name, added_by, created_at`

// Create inserts a household with its owner and initial members in one
// transaction. memberIDs must not contain the owner or duplicates.
func (s *HouseholdStore) Create(name string, ownerID int64, memberIDs []int64) (*model.Snapshot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO households (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
		id, ownerID, string(model.RoleOwner),
	); err != nil {
		return nil, fmt.Errorf("insert owner: %w", err)
	}
	for _, uid := range memberIDs {
		if _, err := tx.Exec(
			`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
			id, uid, string(model.RoleMember),
		); err != nil {
			return nil, fmt.Errorf("insert member %d: %w", uid, err)
		}
	}

	snap, err := loadSnapshot(tx, id)
	if err != nil {
		return nil, fmt.Errorf("load new household: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

// Get returns the household snapshot (roster + catalog) read in a single
// transaction, or nil if the household does not exist.
func (s *HouseholdStore) Get(id int64) (*model.Snapshot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap, err := loadSnapshot(tx, id)
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return snap, nil
}

// AtomicUpdate loads the household snapshot, applies mutate to a copy, and
// writes the difference back, all in one transaction. Busy-database
// conflicts are retried a bounded number of times; the caller only sees
// the final result. Returns (nil, nil) if the household does not exist and
// the mutator's error unchanged if it rejects the update.
func (s *HouseholdStore) AtomicUpdate(id int64, mutate func(*model.Snapshot) error) (*model.Snapshot, error) {
	var out *model.Snapshot
	backoff := retry.WithMaxRetries(maxBusyRetries, retry.NewFibonacci(10*time.Millisecond))
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		snap, err := s.atomicUpdateOnce(id, mutate)
		if err != nil {
			if isBusy(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = snap
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HouseholdStore) atomicUpdateOnce(id int64, mutate func(*model.Snapshot) error) (*model.Snapshot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	before, err := loadSnapshot(tx, id)
	if err != nil {
		return nil, fmt.Errorf("load household: %w", err)
	}
	if before == nil {
		return nil, nil
	}

	after := before.Clone()
	if err := mutate(after); err != nil {
		return nil, err
	}

	if err := applyDiff(tx, before, after); err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(tx, id)
	if err != nil {
		return nil, fmt.Errorf("reload household: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

// applyDiff writes the changes between two snapshots of the same
// household: name, roster rows (insert/role-change/delete), and
// ingredients (insert/delete, matched by unique name).
func applyDiff(tx *sql.Tx, before, after *model.Snapshot) error {
	if after.Name != before.Name {
		if _, err := tx.Exec(
			`UPDATE households SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			after.Name, before.ID,
		); err != nil {
			return fmt.Errorf("update household name: %w", err)
		}
	}

	oldRoles := make(map[int64]model.Role, len(before.Members))
	for _, m := range before.Members {
		oldRoles[m.UserID] = m.Role
	}
	newRoles := make(map[int64]model.Role, len(after.Members))
	for _, m := range after.Members {
		newRoles[m.UserID] = m.Role
	}

	for _, m := range after.Members {
		old, ok := oldRoles[m.UserID]
		switch {
		case !ok:
			if _, err := tx.Exec(
				`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
				before.ID, m.UserID, string(m.Role),
			); err != nil {
				return fmt.Errorf("insert member %d: %w", m.UserID, err)
			}
		case old != m.Role:
			if _, err := tx.Exec(
				`UPDATE household_members SET role = ? WHERE household_id = ? AND user_id = ?`,
				string(m.Role), before.ID, m.UserID,
			); err != nil {
				return fmt.Errorf("update member %d role: %w", m.UserID, err)
			}
		}
	}
	for _, m := range before.Members {
		if _, ok := newRoles[m.UserID]; !ok {
			if _, err := tx.Exec(
				`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
				before.ID, m.UserID,
			); err != nil {
				return fmt.Errorf("remove member %d: %w", m.UserID, err)
			}
		}
	}

	oldNames := make(map[string]bool, len(before.Ingredients))
	for _, ing := range before.Ingredients {
		oldNames[ing.Name] = true
	}
	newNames := make(map[string]bool, len(after.Ingredients))
	for _, ing := range after.Ingredients {
		newNames[ing.Name] = true
	}

	for _, ing := range after.Ingredients {
		if !oldNames[ing.Name] {
			if _, err := tx.Exec(
				`INSERT INTO ingredients (household_id, name, added_by) VALUES (?, ?, ?)`,
				before.ID, ing.Name, ing.AddedBy,
			); err != nil {
				return fmt.Errorf("insert ingredient %q: %w", ing.Name, err)
			}
		}
	}
	for _, ing := range before.Ingredients {
		if !newNames[ing.Name] {
			if _, err := tx.Exec(
				`DELETE FROM ingredients WHERE household_id = ? AND name = ?`,
				before.ID, ing.Name,
			); err != nil {
				return fmt.Errorf("remove ingredient %q: %w", ing.Name, err)
			}
		}
	}

	return nil
}

func loadSnapshot(q queryer, id int64) (*model.Snapshot, error) {
	var snap model.Snapshot
	row := q.QueryRow(`SELECT id, name, created_at, updated_at FROM households WHERE id = ?`, id)
	err := row.Scan(&snap.ID, &snap.Name, &snap.CreatedAt, &snap.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan household: %w", err)
	}

	rows, err := q.Query(
		`SELECT `+memberCols+` FROM household_members WHERE household_id = ? ORDER BY created_at ASC, user_id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		snap.Members = append(snap.Members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ingRows, err := q.Query(
		`SELECT `+ingredientCols+` FROM ingredients WHERE household_id = ? ORDER BY id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		ing, err := scanIngredient(ingRows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		snap.Ingredients = append(snap.Ingredients, *ing)
	}
	return &snap, ingRows.Err()
}

// ListForUser returns the households the user belongs to, by name.
func (s *HouseholdStore) ListForUser(userID int64) ([]model.Household, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		var h model.Household
		if err := rows.Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, h)
	}
	return households, rows.Err()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
