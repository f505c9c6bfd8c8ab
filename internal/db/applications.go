package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	StatusNew             = "new"
	StatusUpdated         = "updated"
	StatusUpdatedConflict = "updated_conflict"
	StatusCompleted       = "completed"
	StatusRejected        = "rejected"
)

// ReviewableStatuses are the non-terminal statuses an admin can still act on.
var ReviewableStatuses = []string{StatusNew, StatusUpdated, StatusUpdatedConflict}

type Application struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Username    *string   `db:"username"`
	FullName    string    `db:"full_name"`
	Age         int       `db:"age"`
	Citizenship string    `db:"citizenship"`
	RegionName  string    `db:"region_name"`
	Address     string    `db:"address"`
	Phone       string    `db:"phone"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Fields carries the answers collected by the registration flow. Nil means
// the answer was not collected, and a tracked update leaves that column alone.
// PrevUsername and PrevFullName hold the stored values so a tracked update
// only touches name columns that actually changed.
type Fields struct {
	Age          *int
	Citizenship  *string
	RegionName   *string
	Address      *string
	Phone        *string
	PrevUsername *string
	PrevFullName *string
}

type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{
		db: db,
	}
}

func (r *ApplicationRepository) GetByUserID(userID int64) (*Application, error) {
	var app Application

	err := r.db.Get(&app, `
	    SELECT * FROM applications
		WHERE user_id = $1
	`, userID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("ApplicationRepository.GetByUserID: %w", err)
	}

	return &app, nil
}

func (r *ApplicationRepository) GetByID(appID int64) (*Application, error) {
	var app Application

	err := r.db.Get(&app, `
	    SELECT * FROM applications
		WHERE id = $1
	`, appID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("ApplicationRepository.GetByID: %w", err)
	}

	return &app, nil
}

// Upsert stores a confirmed submission. With existingAppID it updates only
// the collected fields on that row and marks it 'updated'. Without it, the
// insert resolves a user_id collision in place and marks the row
// 'updated_conflict' instead of failing: the conversation's idea of "no
// existing application" was simply stale.
func (r *ApplicationRepository) Upsert(userID int64, username *string, fullName string, f Fields, existingAppID *int64) error {
	if existingAppID != nil {
		return r.updateTracked(*existingAppID, username, fullName, f)
	}

	_, err := r.db.Exec(`
	    INSERT INTO applications
		(user_id, username, full_name, age, citizenship, region_name, address, phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'new')
		ON CONFLICT (user_id) DO UPDATE SET
		    username = excluded.username, full_name = excluded.full_name, age = excluded.age,
		    citizenship = excluded.citizenship, region_name = excluded.region_name, address = excluded.address,
		    phone = excluded.phone, status = 'updated_conflict', updated_at = CURRENT_TIMESTAMP
	`,
		userID,
		username,
		fullName,
		f.Age,
		f.Citizenship,
		f.RegionName,
		f.Address,
		f.Phone,
	)
	if err != nil {
		return fmt.Errorf("ApplicationRepository.Upsert: %w", err)
	}

	return nil
}

func (r *ApplicationRepository) updateTracked(appID int64, username *string, fullName string, f Fields) error {
	var (
		setClauses []string
		values     []interface{}
	)

	addClause := func(column string, value interface{}) {
		values = append(values, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(values)))
	}

	if username != nil && (f.PrevUsername == nil || *username != *f.PrevUsername) {
		addClause("username", *username)
	}
	if f.PrevFullName == nil || fullName != *f.PrevFullName {
		addClause("full_name", fullName)
	}
	if f.Age != nil {
		addClause("age", *f.Age)
	}
	if f.Citizenship != nil {
		addClause("citizenship", *f.Citizenship)
	}
	if f.RegionName != nil {
		addClause("region_name", *f.RegionName)
	}
	if f.Address != nil {
		addClause("address", *f.Address)
	}
	if f.Phone != nil {
		addClause("phone", *f.Phone)
	}

	if len(setClauses) == 0 {
		return nil
	}

	values = append(values, appID)
	query := fmt.Sprintf(`
	    UPDATE applications
		SET %s, status = 'updated', updated_at = CURRENT_TIMESTAMP
		WHERE id = $%d
	`, strings.Join(setClauses, ", "), len(values))

	if _, err := r.db.Exec(query, values...); err != nil {
		return fmt.Errorf("ApplicationRepository.updateTracked: %w", err)
	}

	return nil
}

// ListPage returns one 1-based page of applications in the given statuses,
// newest update first, plus the total page and item counts. No matching rows
// yields ([], 0, 0).
func (r *ApplicationRepository) ListPage(page, perPage int, statuses []string) ([]Application, int, int, error) {
	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM applications WHERE status IN (?)`, statuses)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("ApplicationRepository.ListPage: %w", err)
	}

	var totalItems int
	if err := r.db.Get(&totalItems, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, 0, fmt.Errorf("ApplicationRepository.ListPage: %w", err)
	}

	if totalItems == 0 {
		return nil, 0, 0, nil
	}

	totalPages := (totalItems + perPage - 1) / perPage
	offset := (page - 1) * perPage

	listQuery, listArgs, err := sqlx.In(`
	    SELECT * FROM applications
		WHERE status IN (?)
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, statuses, perPage, offset)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("ApplicationRepository.ListPage: %w", err)
	}

	var apps []Application
	if err := r.db.Select(&apps, r.db.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, 0, fmt.Errorf("ApplicationRepository.ListPage: %w", err)
	}

	return apps, totalPages, totalItems, nil
}

// SetStatus moves an application to a new status. The update is restricted to
// reviewable rows, so two admins racing on the same application cannot flip a
// terminal status; the loser gets ErrNotFound.
func (r *ApplicationRepository) SetStatus(appID int64, newStatus string) error {
	query, args, err := sqlx.In(`
	    UPDATE applications
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?)
	`, newStatus, appID, ReviewableStatuses)
	if err != nil {
		return fmt.Errorf("ApplicationRepository.SetStatus: %w", err)
	}

	res, err := r.db.Exec(r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("ApplicationRepository.SetStatus: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ApplicationRepository.SetStatus: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
