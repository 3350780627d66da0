package models

import (
	"time"

	"github.com/lib/pq"
)

type ReactionKind string

const (
	ReactionLikes  ReactionKind = "likes"
	ReactionHearts ReactionKind = "hearts"
)

func (k ReactionKind) Valid() bool {
	return k == ReactionLikes || k == ReactionHearts
}

// Reactions holds one non-negative counter per reaction kind.
type Reactions struct {
	Likes  int `gorm:"not null;default:0" bson:"likes" json:"likes"`
	Hearts int `gorm:"not null;default:0" bson:"hearts" json:"hearts"`
}

func (r *Reactions) counter(kind ReactionKind) *int {
	switch kind {
	case ReactionLikes:
		return &r.Likes
	case ReactionHearts:
		return &r.Hearts
	}
	return nil
}

func (r *Reactions) Increment(kind ReactionKind) {
	if c := r.counter(kind); c != nil {
		*c++
	}
}

// Decrement lowers the counter for kind, never below zero.
func (r *Reactions) Decrement(kind ReactionKind) {
	if c := r.counter(kind); c != nil && *c > 0 {
		*c--
	}
}

type Comment struct {
	ID         string         `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	SubjectID  string         `gorm:"not null;index" bson:"subject_id" json:"subject_id"`
	AuthorID   string         `gorm:"not null;size:36" bson:"author_id" json:"author_id"`
	AuthorName string         `gorm:"not null" bson:"author_name" json:"author_name"`
	Body       string         `gorm:"type:text;not null" bson:"body" json:"body"`
	ParentID   *string        `gorm:"size:36;index" bson:"parent_id" json:"parent_id"`
	Reactions  Reactions      `gorm:"embedded;embeddedPrefix:reaction_" bson:"reactions" json:"reactions"`
	ReactorIDs pq.StringArray `gorm:"column:reactor_ids;type:text[]" bson:"reactor_ids" json:"reactor_ids"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at"`
}

// HasReactor reports whether userID has an active reaction on the comment.
func (c Comment) HasReactor(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range c.ReactorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot share slices or pointers.
func (c Comment) Clone() Comment {
	out := c
	if c.ParentID != nil {
		parent := *c.ParentID
		out.ParentID = &parent
	}
	out.ReactorIDs = append(pq.StringArray{}, c.ReactorIDs...)
	return out
}

type CreateCommentRequest struct {
	SubjectID string  `json:"subject_id" binding:"required"`
	Body      string  `json:"body" binding:"required"`
	ParentID  *string `json:"parent_id"`
}

type ReactionResponse struct {
	Success   bool      `json:"success"`
	Reacted   bool      `json:"reacted"`
	Reactions Reactions `json:"reactions"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
