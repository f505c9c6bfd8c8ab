package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type BlocklistRepository struct {
	db *sqlx.DB
}

func NewBlocklistRepository(db *sqlx.DB) *BlocklistRepository {
	return &BlocklistRepository{
		db: db,
	}
}

// Add persists a ban. A repeated ban returns ErrDuplicate so the caller can
// resync its cache instead of treating it as a failure.
func (r *BlocklistRepository) Add(userID int64, reason string) error {
	_, err := r.db.Exec(`
	    INSERT INTO blocked_users (user_id, reason) VALUES ($1, $2)
	`, userID, reason)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}

		return fmt.Errorf("BlocklistRepository.Add: %w", err)
	}

	return nil
}

func (r *BlocklistRepository) ListUserIDs() ([]int64, error) {
	var ids []int64

	err := r.db.Select(&ids, `
	    SELECT user_id FROM blocked_users
	`)

	if err != nil {
		return nil, fmt.Errorf("BlocklistRepository.ListUserIDs: %w", err)
	}

	return ids, nil
}
