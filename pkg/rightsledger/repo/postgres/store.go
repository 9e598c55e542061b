// Package postgres provides a PostgreSQL-backed rightsledger.Store. All
// records live in a single ledger_record table addressed by their canonical
// derived key; RunAtomic wraps the operation in a SERIALIZABLE transaction,
// so concurrent same-key operations are serialized by the database and the
// loser is rejected for retry against fresh state.
//
// Expected schema:
//
//	CREATE TABLE ledger_record (
//	    key        TEXT PRIMARY KEY,
//	    entity     TEXT NOT NULL,
//	    data       JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger"
	"github.com/slydr-labs/rights-ledger/pkg/rightsledger/recordkey"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store implements rightsledger.Store using PostgreSQL.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New creates a store over an existing connection or transaction. A store
// built this way treats RunAtomic as nested: the caller owns the
// transaction boundary.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a store that opens its own SERIALIZABLE transaction
// per RunAtomic call.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// ErrSerializationFailure marks a transaction rejected by the database's
// serializability check; the caller should retry against fresh state.
var ErrSerializationFailure = errors.New("transaction serialization failure, retry")

func (s *Store) RunAtomic(ctx context.Context, fn func(tx rightsledger.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(New(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit", err)
	}
	return nil
}

// Record accessors. Each entity is serialized as JSONB at its derived key.

func (s *Store) GetPlatform(ctx context.Context) (*rightsledger.Platform, error) {
	var platform rightsledger.Platform
	if err := s.getRecord(ctx, recordkey.Platform(), &platform); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rightsledger.ErrPlatformNotFound
		}
		return nil, err
	}
	return &platform, nil
}

func (s *Store) PutPlatform(ctx context.Context, platform *rightsledger.Platform) error {
	return s.putRecord(ctx, recordkey.Platform(), platform)
}

func (s *Store) GetContent(ctx context.Context, contentID string) (*rightsledger.Content, error) {
	var content rightsledger.Content
	if err := s.getRecord(ctx, recordkey.Content(contentID), &content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rightsledger.ErrContentNotFound
		}
		return nil, err
	}
	return &content, nil
}

func (s *Store) PutContent(ctx context.Context, content *rightsledger.Content) error {
	return s.putRecord(ctx, recordkey.Content(content.ID), content)
}

func (s *Store) GetPurchase(ctx context.Context, buyer uuid.UUID, contentID string) (*rightsledger.Purchase, error) {
	var purchase rightsledger.Purchase
	key := recordkey.Purchase(buyer, recordkey.Content(contentID))
	if err := s.getRecord(ctx, key, &purchase); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rightsledger.ErrPurchaseNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

func (s *Store) PutPurchase(ctx context.Context, purchase *rightsledger.Purchase) error {
	key := recordkey.Purchase(purchase.Buyer, recordkey.Content(purchase.ContentID))
	return s.putRecord(ctx, key, purchase)
}

func (s *Store) GetRental(ctx context.Context, renter uuid.UUID, contentID string) (*rightsledger.Purchase, error) {
	var rental rightsledger.Purchase
	key := recordkey.Rental(renter, recordkey.Content(contentID))
	if err := s.getRecord(ctx, key, &rental); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rightsledger.ErrRentalNotFound
		}
		return nil, err
	}
	return &rental, nil
}

func (s *Store) PutRental(ctx context.Context, rental *rightsledger.Purchase) error {
	key := recordkey.Rental(rental.Buyer, recordkey.Content(rental.ContentID))
	return s.putRecord(ctx, key, rental)
}

func (s *Store) GetSubscription(ctx context.Context, subscriber uuid.UUID) (*rightsledger.Subscription, error) {
	var subscription rightsledger.Subscription
	if err := s.getRecord(ctx, recordkey.Subscription(subscriber), &subscription); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rightsledger.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &subscription, nil
}

func (s *Store) PutSubscription(ctx context.Context, subscription *rightsledger.Subscription) error {
	return s.putRecord(ctx, recordkey.Subscription(subscription.Subscriber), subscription)
}

func (s *Store) getRecord(ctx context.Context, key recordkey.Key, out interface{}) error {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM ledger_record WHERE key = $1`, string(key)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return mapError("get "+key.Tag(), err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s record: %w", key.Tag(), err)
	}
	return nil
}

func (s *Store) putRecord(ctx context.Context, key recordkey.Key, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", key.Tag(), err)
	}

	query := `
		INSERT INTO ledger_record (key, entity, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, string(key), key.Tag(), data); err != nil {
		return mapError("put "+key.Tag(), err)
	}
	return nil
}

// mapError translates low-level postgres failures into errors the caller
// can act on.
func mapError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001": // serialization_failure
			return ErrSerializationFailure
		case "42P01": // undefined_table
			return fmt.Errorf("ledger_record table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}
