package database

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

// MemoryStore keeps everything in process. Records are copied on the way in
// and out so callers never alias stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	comments map[string]models.Comment
	users    map[string]models.User
	emails   map[string]string // email -> user id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments: make(map[string]models.Comment),
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
	}
}

func (m *MemoryStore) Insert(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[c.ID]; ok {
		return errors.Wrapf(apperr.ErrConflict, "database:Insert: comment %s exists", c.ID)
	}
	m.comments[c.ID] = c.Clone()
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "database:FindByID: comment %s", id)
	}
	out := c.Clone()
	return &out, nil
}

func (m *MemoryStore) FindBySubject(_ context.Context, subjectID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Comment, 0)
	for _, c := range m.comments {
		if c.SubjectID == subjectID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) CountBySubject(_ context.Context, subjectID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, c := range m.comments {
		if c.SubjectID == subjectID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) UpdateReactions(_ context.Context, id string, reactions models.Reactions, reactorIDs []string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return errors.Wrapf(apperr.ErrNotFound, "database:UpdateReactions: comment %s", id)
	}
	c.Reactions = reactions
	c.ReactorIDs = append(c.ReactorIDs[:0:0], reactorIDs...)
	c.UpdatedAt = updatedAt
	m.comments[id] = c
	return nil
}

func (m *MemoryStore) DeleteWithChildren(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for key, c := range m.comments {
		if key == id || (c.ParentID != nil && *c.ParentID == id) {
			delete(m.comments, key)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emails[u.Email]; ok {
		return errors.Wrapf(apperr.ErrConflict, "database:CreateUser: email %s", u.Email)
	}
	if _, ok := m.users[u.ID]; ok {
		return errors.Wrapf(apperr.ErrConflict, "database:CreateUser: user %s", u.ID)
	}
	m.users[u.ID] = *u
	m.emails[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) UserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "database:UserByID: user %s", id)
	}
	return &u, nil
}

func (m *MemoryStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "database:UserByEmail: %s", email)
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) SaveUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.users[u.ID]
	if !ok {
		return errors.Wrapf(apperr.ErrNotFound, "database:SaveUser: user %s", u.ID)
	}
	old.FullName = u.FullName
	old.Role = u.Role
	old.UpdatedAt = u.UpdatedAt
	m.users[u.ID] = old
	return nil
}

// DeleteUser is only used to simulate an account vanishing under a live token.
func (m *MemoryStore) DeleteUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		delete(m.emails, u.Email)
		delete(m.users, id)
	}
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Health() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]string{
		"status":   "up",
		"message":  "It's healthy",
		"driver":   "memory",
		"comments": strconv.Itoa(len(m.comments)),
		"users":    strconv.Itoa(len(m.users)),
	}
}

func (m *MemoryStore) Close() error { return nil }
