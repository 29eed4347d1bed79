// Package postgres stores documents as JSONB rows, one table per collection.
package postgres

import (
	"context"
	_ "embed"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrymigrate "github.com/chirino/media-tracker/internal/registry/migrate"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "postgres",
		Loader: func(ctx context.Context) (registrystore.Store, error) {
			cfg := config.FromContext(ctx)
			db, err := open(cfg)
			if err != nil {
				return nil, err
			}
			return New(db)
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Store: "postgres", Order: 100, Migrator: &postgresMigrator{}})
}

func open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBURL), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	return db, nil
}

// schemaSQL creates the collection tables and their indexes. Every statement
// is idempotent so the migration can run on each start.
//
//go:embed db/schema.sql
var schemaSQL string

type postgresMigrator struct{}

func (m *postgresMigrator) Name() string { return "postgres-schema" }

func (m *postgresMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := open(cfg)
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if _, err := sqlDB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migration: failed to execute schema: %w", err)
	}
	log.Info("Postgres schema migration complete")
	return nil
}

// PostgresStore implements registrystore.Store over PostgreSQL.
type PostgresStore struct {
	db    *gorm.DB
	sqlDB *sql.DB
	stop  chan struct{}
}

// New wraps an open connection. The schema must already exist.
func New(db *gorm.DB) (*PostgresStore, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}
	s := &PostgresStore{db: db, sqlDB: sqlDB, stop: make(chan struct{})}
	go s.reportPool()
	return s, nil
}

// reportPool periodically copies the pool size into the open connections gauge.
func (s *PostgresStore) reportPool() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if security.DBPoolOpenConnections != nil {
				security.DBPoolOpenConnections.Set(float64(s.sqlDB.Stats().OpenConnections))
			}
		}
	}
}

func (s *PostgresStore) Categories() registrystore.Collection[model.Category] {
	return &collection[model.Category]{db: s.db, name: registrystore.CollectionCategories}
}

func (s *PostgresStore) Groups() registrystore.Collection[model.Group] {
	return &collection[model.Group]{db: s.db, name: registrystore.CollectionGroups}
}

func (s *PostgresStore) OwnPlatforms() registrystore.Collection[model.OwnPlatform] {
	return &collection[model.OwnPlatform]{db: s.db, name: registrystore.CollectionOwnPlatforms}
}

func (s *PostgresStore) Books() registrystore.Collection[model.Book] {
	return &collection[model.Book]{db: s.db, name: registrystore.CollectionBooks}
}

func (s *PostgresStore) Movies() registrystore.Collection[model.Movie] {
	return &collection[model.Movie]{db: s.db, name: registrystore.CollectionMovies}
}

func (s *PostgresStore) TvShows() registrystore.Collection[model.TvShow] {
	return &collection[model.TvShow]{db: s.db, name: registrystore.CollectionTvShows}
}

func (s *PostgresStore) Videogames() registrystore.Collection[model.Videogame] {
	return &collection[model.Videogame]{db: s.db, name: registrystore.CollectionVideogames}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	close(s.stop)
	return s.sqlDB.Close()
}

var _ registrystore.Store = (*PostgresStore)(nil)

type row struct {
	Doc string
}

type collection[E any] struct {
	db   *gorm.DB
	name string
}

func (c *collection[E]) table() string { return `"` + c.name + `"` }

func (c *collection[E]) FindOne(ctx context.Context, cond query.Condition) (*E, error) {
	w := toWhere(cond)
	var rows []row
	err := c.db.WithContext(ctx).Raw("SELECT doc FROM "+c.table()+" WHERE "+w.sql+" LIMIT 1", w.args...).Scan(&rows).Error
	if err != nil {
		return nil, registrystore.Wrap("find_one", c.name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var doc E
	if err := json.Unmarshal([]byte(rows[0].Doc), &doc); err != nil {
		return nil, registrystore.Wrap("find_one", c.name, fmt.Errorf("failed to decode: %w", err))
	}
	return &doc, nil
}

func (c *collection[E]) Find(ctx context.Context, cond query.Condition, order query.Ordering) ([]E, error) {
	w := toWhere(cond)
	var rows []row
	err := c.db.WithContext(ctx).Raw("SELECT doc FROM "+c.table()+" WHERE "+w.sql+toOrderBy(order), w.args...).Scan(&rows).Error
	if err != nil {
		return nil, registrystore.Wrap("find", c.name, err)
	}
	docs := make([]E, len(rows))
	for i, r := range rows {
		if err := json.Unmarshal([]byte(r.Doc), &docs[i]); err != nil {
			return nil, registrystore.Wrap("find", c.name, fmt.Errorf("failed to decode: %w", err))
		}
	}
	return docs, nil
}

func (c *collection[E]) Count(ctx context.Context, cond query.Condition) (int64, error) {
	w := toWhere(cond)
	var n int64
	err := c.db.WithContext(ctx).Raw("SELECT count(*) FROM "+c.table()+" WHERE "+w.sql, w.args...).Scan(&n).Error
	return n, registrystore.Wrap("count", c.name, err)
}

func (c *collection[E]) Insert(ctx context.Context, doc *E) error {
	p, ok := any(doc).(model.Persisted)
	if !ok {
		return registrystore.Wrap("insert", c.name, fmt.Errorf("%T has no id", doc))
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return registrystore.Wrap("insert", c.name, err)
	}
	err = c.db.WithContext(ctx).Exec("INSERT INTO "+c.table()+" (id, doc) VALUES (?, ?::jsonb)", p.GetID(), string(data)).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &registrystore.ConflictError{
			Message: fmt.Sprintf("%s already holds this document", c.name),
			Code:    "duplicate_id",
		}
	}
	return registrystore.Wrap("insert", c.name, err)
}

func (c *collection[E]) Replace(ctx context.Context, id string, doc *E) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return registrystore.Wrap("replace", c.name, err)
	}
	res := c.db.WithContext(ctx).Exec("UPDATE "+c.table()+" SET doc = ?::jsonb WHERE id = ?", string(data), id)
	if res.Error != nil {
		return registrystore.Wrap("replace", c.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return &registrystore.NotFoundError{Resource: c.name, ID: id}
	}
	return nil
}

func (c *collection[E]) DeleteMany(ctx context.Context, cond query.Condition) (int64, error) {
	w := toWhere(cond)
	res := c.db.WithContext(ctx).Exec("DELETE FROM "+c.table()+" WHERE "+w.sql, w.args...)
	if res.Error != nil {
		return 0, registrystore.Wrap("delete_many", c.name, res.Error)
	}
	return res.RowsAffected, nil
}

// Unset counts only documents holding at least one of the fields.
func (c *collection[E]) Unset(ctx context.Context, cond query.Condition, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	w := toWhere(cond)
	update := "doc"
	present := make([]query.Condition, 0, len(fields))
	args := make([]any, 0, len(fields)+len(w.args))
	for _, f := range fields {
		_ = field(f)
		update += " - ?::text"
		args = append(args, f)
		present = append(present, query.Exists{Field: f, Exists: true})
	}
	held := toWhere(query.Or(present))
	args = append(args, w.args...)
	args = append(args, held.args...)
	res := c.db.WithContext(ctx).Exec("UPDATE "+c.table()+" SET doc = "+update+" WHERE "+w.sql+" AND "+held.sql, args...)
	if res.Error != nil {
		return 0, registrystore.Wrap("unset", c.name, res.Error)
	}
	return res.RowsAffected, nil
}
