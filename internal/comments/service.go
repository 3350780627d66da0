package comments

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/auth"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

type Service struct {
	store Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReactResult is the state of a comment's reactions right after a toggle.
type ReactResult struct {
	Reacted   bool
	Reactions models.Reactions
}

func (s *Service) ListThreaded(ctx context.Context, subjectID, callerID string) ([]*Node, error) {
	records, err := s.store.FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "comments:ListThreaded: FindBySubject failed")
	}
	return BuildTree(records, callerID), nil
}

// ListFlat returns the subject's comments newest first.
func (s *Service) ListFlat(ctx context.Context, subjectID string) ([]models.Comment, error) {
	records, err := s.store.FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "comments:ListFlat: FindBySubject failed")
	}
	if records == nil {
		records = []models.Comment{}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *Service) Count(ctx context.Context, subjectID string) (int64, error) {
	n, err := s.store.CountBySubject(ctx, subjectID)
	if err != nil {
		return 0, errors.Wrap(err, "comments:Count: CountBySubject failed")
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, req models.CreateCommentRequest) (*models.Comment, error) {
	if caller.UserID == "" {
		return nil, apperr.Unauthenticated("Not authenticated")
	}

	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return nil, apperr.InvalidArgument("subject_id is required")
	}

	body, err := sanitizeBody(req.Body)
	if err != nil {
		return nil, err
	}

	// an empty parent_id is a top-level comment
	var parentID *string
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		parent, err := s.store.FindByID(ctx, strings.TrimSpace(*req.ParentID))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.NotFound("Parent comment not found")
			}
			return nil, errors.Wrap(err, "comments:Create: FindByID(parent) failed")
		}
		if parent.SubjectID != subjectID {
			return nil, apperr.InvalidArgument("Parent comment belongs to a different subject")
		}
		id := parent.ID
		parentID = &id
	}

	now := s.now()
	comment := &models.Comment{
		ID:         uuid.NewString(),
		SubjectID:  subjectID,
		AuthorID:   caller.UserID,
		AuthorName: caller.DisplayName,
		Body:       body,
		ParentID:   parentID,
		ReactorIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Insert(ctx, comment); err != nil {
		return nil, errors.Wrap(err, "comments:Create: Insert failed")
	}

	logger.Debugf("comment %s created on %s by %s", comment.ID, subjectID, caller.UserID)
	return comment, nil
}

// React toggles callerID's membership in the comment's reactor set and moves
// the counter for kind with it. The reactor set is shared by all kinds.
func (s *Service) React(ctx context.Context, commentID, callerID string, kind models.ReactionKind) (*ReactResult, error) {
	if !kind.Valid() {
		return nil, apperr.InvalidArgument("Invalid reaction type")
	}
	if callerID == "" {
		return nil, apperr.Unauthenticated("Not authenticated")
	}

	comment, err := s.store.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, errors.Wrap(err, "comments:React: FindByID failed")
	}

	reactions := comment.Reactions
	reactors := make([]string, 0, len(comment.ReactorIDs)+1)
	reacted := true
	for _, id := range comment.ReactorIDs {
		if id == callerID {
			reacted = false
			continue
		}
		reactors = append(reactors, id)
	}
	if reacted {
		reactors = append(reactors, callerID)
		reactions.Increment(kind)
	} else {
		reactions.Decrement(kind)
	}

	if err := s.store.UpdateReactions(ctx, commentID, reactions, reactors, s.now()); err != nil {
		return nil, errors.Wrap(err, "comments:React: UpdateReactions failed")
	}
	return &ReactResult{Reacted: reacted, Reactions: reactions}, nil
}

// Delete removes the comment and its direct replies. Deeper descendants are
// left in place and drop out of the threaded view.
func (s *Service) Delete(ctx context.Context, commentID string, caller auth.Identity) error {
	comment, err := s.store.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("Comment not found")
		}
		return errors.Wrap(err, "comments:Delete: FindByID failed")
	}

	if comment.AuthorID != caller.UserID && !caller.IsAdmin() {
		return apperr.Forbidden("Not authorized to delete this comment")
	}

	n, err := s.store.DeleteWithChildren(ctx, commentID)
	if err != nil {
		return errors.Wrap(err, "comments:Delete: DeleteWithChildren failed")
	}

	logger.Debugf("comment %s deleted by %s, %d records removed", commentID, caller.UserID, n)
	return nil
}
