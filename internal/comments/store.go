package comments

import (
	"context"
	"time"

	"github.com/emilythestrangee/ystore/backend/internal/models"
)

// Store is the comment collection. Missing records surface as
// apperr.ErrNotFound.
type Store interface {
	Insert(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	FindBySubject(ctx context.Context, subjectID string) ([]models.Comment, error)
	CountBySubject(ctx context.Context, subjectID string) (int64, error)
	// UpdateReactions overwrites the counters and the full reactor set.
	UpdateReactions(ctx context.Context, id string, reactions models.Reactions, reactorIDs []string, updatedAt time.Time) error
	// DeleteWithChildren removes id and every record whose parent_id is id
	// in a single statement, returning the number removed.
	DeleteWithChildren(ctx context.Context, id string) (int64, error)
}
