package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
)

// PlatformCounts gathers the numbers behind GET /stats in one query.
func (db *DB) PlatformCounts(ctx context.Context) (repository.PlatformCounts, error) {
	var c repository.PlatformCounts
	err := sqlx.GetContext(ctx, db.q, &c,
		`SELECT
		   (SELECT COUNT(*) FROM questions) AS total_questions,
		   (SELECT COUNT(*) FROM users) AS total_users,
		   (SELECT COUNT(*) FROM questions WHERE status = ?) AS resolved_questions`,
		model.StatusResolved,
	)
	if err != nil {
		return repository.PlatformCounts{}, fmt.Errorf("sqlite: computing platform counts: %w", err)
	}
	return c, nil
}
