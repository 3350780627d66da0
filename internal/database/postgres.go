package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/config"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

type PostgresStore struct {
	db   *gorm.DB
	name string
}

// OpenPostgres connects through the pgx stdlib driver and hands the pool to
// gorm.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, develop bool) (*PostgresStore, error) {
	sqlDB, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, errors.Wrap(err, "database:OpenPostgres: sql.Open failed")
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "database:OpenPostgres: ping failed")
	}

	level := gormlogger.Warn
	if develop {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.NewGormLogger(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "database:OpenPostgres: gorm.Open failed")
	}

	logger.Infof("Database connected successfully")
	return &PostgresStore{db: db, name: cfg.Name}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Comment{}); err != nil {
		return errors.Wrap(err, "database:Migrate: AutoMigrate failed")
	}
	logger.Infof("Database migrations completed")
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Wrapf(apperr.ErrConflict, "database:Insert: comment %s", c.ID)
		}
		return errors.Wrap(err, "database:Insert: Create failed")
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperr.ErrNotFound, "database:FindByID: comment %s", id)
		}
		return nil, errors.Wrap(err, "database:FindByID: First failed")
	}
	return &c, nil
}

func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID string) ([]models.Comment, error) {
	out := make([]models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "database:FindBySubject: Find failed")
	}
	return out, nil
}

func (s *PostgresStore) CountBySubject(ctx context.Context, subjectID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("subject_id = ?", subjectID).Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "database:CountBySubject: Count failed")
	}
	return n, nil
}

func (s *PostgresStore) UpdateReactions(ctx context.Context, id string, reactions models.Reactions, reactorIDs []string, updatedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(map[string]any{
		"reaction_likes":  reactions.Likes,
		"reaction_hearts": reactions.Hearts,
		"reactor_ids":     pq.StringArray(reactorIDs),
		"updated_at":      updatedAt,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "database:UpdateReactions: Updates failed")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(apperr.ErrNotFound, "database:UpdateReactions: comment %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteWithChildren(ctx context.Context, id string) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ? OR parent_id = ?", id, id).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "database:DeleteWithChildren: Delete failed")
	}
	return res.RowsAffected, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Wrapf(apperr.ErrConflict, "database:CreateUser: email %s", u.Email)
		}
		return errors.Wrap(err, "database:CreateUser: Create failed")
	}
	return nil
}

func (s *PostgresStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *PostgresStore) findUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperr.ErrNotFound, "database:findUser: %s", arg)
		}
		return nil, errors.Wrap(err, "database:findUser: First failed")
	}
	return &u, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, u *models.User) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"full_name":  u.FullName,
		"role":       u.Role,
		"updated_at": u.UpdatedAt,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "database:SaveUser: Updates failed")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(apperr.ErrNotFound, "database:SaveUser: user %s", u.ID)
	}
	return nil
}

// Health checks the health of the database connection by pinging the database.
func (s *PostgresStore) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := map[string]string{"driver": config.DriverPostgres}

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	logger.Infof("Disconnected from database: %s", s.name)
	return sqlDB.Close()
}
