// Package gormstore provides a SQL room store on gorm (SQLite or PostgreSQL).
package gormstore

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/osa030/karaokebox/internal/domain/room"
)

// Store persists rooms in a SQL database.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
// driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.Newf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database handle")
	}
	if driver == "sqlite" {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	zlog.Info().Msgf("database connected: driver=%s", driver)
	return New(db)
}

// New wraps an open connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&roomRecord{}, &singerRecord{}, &requestRecord{}); err != nil {
		return nil, errors.Wrap(err, "migration failed")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Create inserts a room with its singers and requests.
func (s *Store) Create(ctx context.Context, rm *room.Room) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toRoomRecord(rm)
		if err := tx.Create(&rec).Error; err != nil {
			return errors.Wrap(err, "failed to insert room")
		}
		return saveChildren(tx, rm)
	})
}

// Get loads a room.
func (s *Store) Get(ctx context.Context, id string) (*room.Room, error) {
	return load(s.db.WithContext(ctx), id)
}

// List loads every room, oldest first.
func (s *Store) List(ctx context.Context) ([]*room.Room, error) {
	db := s.db.WithContext(ctx)

	var recs []roomRecord
	if err := db.Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list rooms")
	}
	if len(recs) == 0 {
		return []*room.Room{}, nil
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}

	var singers []singerRecord
	if err := db.Where("room_id IN ?", ids).Order("joined_at, id").Find(&singers).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list singers")
	}
	var requests []requestRecord
	if err := db.Where("room_id IN ?", ids).Order("submitted_at, id").Find(&requests).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list requests")
	}

	singersByRoom := make(map[string][]singerRecord)
	for _, sr := range singers {
		singersByRoom[sr.RoomID] = append(singersByRoom[sr.RoomID], sr)
	}
	requestsByRoom := make(map[string][]requestRecord)
	for _, rr := range requests {
		requestsByRoom[rr.RoomID] = append(requestsByRoom[rr.RoomID], rr)
	}

	out := make([]*room.Room, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain(singersByRoom[recs[i].ID], requestsByRoom[recs[i].ID]))
	}
	return out, nil
}

// Update loads the room inside a transaction, applies fn and writes the result
// back. On PostgreSQL the room row is locked for the duration.
func (s *Store) Update(ctx context.Context, id string, fn func(rm *room.Room) error) (*room.Room, error) {
	var updated *room.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		rm, err := load(q, id)
		if err != nil {
			return err
		}

		if err := fn(rm); err != nil {
			return err
		}

		rec := toRoomRecord(rm)
		if err := tx.Save(&rec).Error; err != nil {
			return errors.Wrap(err, "failed to save room")
		}
		if err := saveChildren(tx, rm); err != nil {
			return err
		}
		updated = rm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// load reads a room row and its children. The room query may carry a locking clause.
func load(db *gorm.DB, id string) (*room.Room, error) {
	var rec roomRecord
	if err := db.Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, room.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to load room")
	}

	plain := db.Session(&gorm.Session{NewDB: true})
	var singers []singerRecord
	if err := plain.Where("room_id = ?", id).Order("joined_at, id").Find(&singers).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load singers")
	}
	var requests []requestRecord
	if err := plain.Where("room_id = ?", id).Order("submitted_at, id").Find(&requests).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load requests")
	}
	return rec.toDomain(singers, requests), nil
}

// saveChildren upserts singers and requests. Neither is ever deleted.
func saveChildren(tx *gorm.DB, rm *room.Room) error {
	if singers := toSingerRecords(rm); len(singers) > 0 {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&singers).Error; err != nil {
			return errors.Wrap(err, "failed to save singers")
		}
	}
	if requests := toRequestRecords(rm); len(requests) > 0 {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&requests).Error; err != nil {
			return errors.Wrap(err, "failed to save requests")
		}
	}
	return nil
}
