package database

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/config"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func comment(id, subject string, parent *string, minute int) *models.Comment {
	at := base.Add(time.Duration(minute) * time.Minute)
	return &models.Comment{
		ID:         id,
		SubjectID:  subject,
		AuthorID:   "U1",
		AuthorName: "Alice",
		Body:       "body " + id,
		ParentID:   parent,
		ReactorIDs: []string{},
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func ptr(s string) *string { return &s }

// exerciseBackend runs the behaviour every driver must share.
func exerciseBackend(t *testing.T, b Backend) {
	ctx := context.Background()
	require.NoError(t, b.Migrate(ctx))

	t.Run("comments", func(t *testing.T) {
		require.NoError(t, b.Insert(ctx, comment("c1", "P1", nil, 0)))
		require.NoError(t, b.Insert(ctx, comment("c2", "P1", ptr("c1"), 1)))
		require.NoError(t, b.Insert(ctx, comment("c3", "P1", ptr("c2"), 2)))
		require.NoError(t, b.Insert(ctx, comment("c4", "P1", nil, 3)))
		require.NoError(t, b.Insert(ctx, comment("x1", "P2", nil, 4)))

		err := b.Insert(ctx, comment("c1", "P1", nil, 5))
		assert.True(t, errors.Is(err, apperr.ErrConflict))

		got, err := b.FindByID(ctx, "c2")
		require.NoError(t, err)
		assert.Equal(t, "P1", got.SubjectID)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, "c1", *got.ParentID)
		assert.True(t, got.CreatedAt.Equal(base.Add(time.Minute)))

		_, err = b.FindByID(ctx, "nope")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		list, err := b.FindBySubject(ctx, "P1")
		require.NoError(t, err)
		assert.Len(t, list, 4)

		empty, err := b.FindBySubject(ctx, "none")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		n, err := b.CountBySubject(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		later := base.Add(time.Hour)
		require.NoError(t, b.UpdateReactions(ctx, "c1", models.Reactions{Likes: 2, Hearts: 1}, []string{"U1", "U2"}, later))
		got, err = b.FindByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, models.Reactions{Likes: 2, Hearts: 1}, got.Reactions)
		assert.Equal(t, []string{"U1", "U2"}, []string(got.ReactorIDs))
		assert.True(t, got.UpdatedAt.Equal(later))

		err = b.UpdateReactions(ctx, "nope", models.Reactions{}, nil, later)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		removed, err := b.DeleteWithChildren(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		list, err = b.FindBySubject(ctx, "P1")
		require.NoError(t, err)
		var left []string
		for _, c := range list {
			left = append(left, c.ID)
		}
		assert.ElementsMatch(t, []string{"c3", "c4"}, left)

		n, err = b.CountBySubject(ctx, "P2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("users", func(t *testing.T) {
		u := &models.User{
			ID:           "u-1",
			Email:        "jane@example.com",
			FullName:     "Jane",
			Role:         models.RoleCustomer,
			PasswordHash: "hash",
			CreatedAt:    base,
			UpdatedAt:    base,
		}
		require.NoError(t, b.CreateUser(ctx, u))

		dup := *u
		dup.ID = "u-2"
		err := b.CreateUser(ctx, &dup)
		assert.True(t, errors.Is(err, apperr.ErrConflict))

		got, err := b.UserByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		got.FullName = "Janet"
		got.Role = models.RoleAdmin
		got.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, b.SaveUser(ctx, got))

		got, err = b.UserByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "Janet", got.FullName)
		assert.Equal(t, models.RoleAdmin, got.Role)

		_, err = b.UserByID(ctx, "u-404")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		err = b.SaveUser(ctx, &models.User{ID: "u-404"})
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	assert.Equal(t, "up", b.Health()["status"])
	require.NoError(t, b.Close())
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryStore())
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	c := comment("c1", "P1", ptr("p"), 0)
	c.ReactorIDs = []string{"U1"}
	require.NoError(t, m.Insert(ctx, c))

	c.ReactorIDs[0] = "mutated"
	*c.ParentID = "mutated"

	got, err := m.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "U1", got.ReactorIDs[0])
	assert.Equal(t, "p", *got.ParentID)
}

func TestNewSelectsDriver(t *testing.T) {
	b, err := New(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory}, false)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, b)

	_, err = New(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, false)
	assert.Error(t, err)
}

func TestPostgresBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("ystore"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := OpenPostgres(ctx, config.DatabaseConfig{
		URL:             dsn,
		Name:            "ystore",
		MaxIdleConns:    2,
		MaxOpenConns:    4,
		ConnMaxLifetime: time.Minute,
	}, false)
	require.NoError(t, err)

	exerciseBackend(t, store)
}

func TestMongoBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := OpenMongo(ctx, config.DatabaseConfig{MongoURL: uri, MongoDB: "ystore_test"})
	require.NoError(t, err)

	exerciseBackend(t, store)
}
