// Package objectstore persists inscriptions and their dynamic fields to
// PostgreSQL. Each inscription is one row with a fixed column set;
// dynamic fields (permanent/temporary/charm/validity) live in a
// separate type-keyed side table, upserted one at a time by SaveField,
// outside the transaction that saves the parent row.
package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/ord-engine/internal/ord/inscription"
	"github.com/rawblock/ord-engine/internal/ord/objectid"
)

// PostgresStore is the durable backing store for inscription objects.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pgxpool connection and verifies it with a ping.
func Connect(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("objectstore: unable to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("objectstore: ping failed: %w", err)
	}
	log.Println("objectstore: connected to PostgreSQL")
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes schema.sql against the connected
// database. Safe to call repeatedly — every statement is idempotent.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	schemaBytes, err := os.ReadFile("internal/ord/objectstore/schema.sql")
	if err != nil {
		return fmt.Errorf("objectstore: failed to read schema file: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("objectstore: failed to execute schema: %w", err)
	}
	log.Println("objectstore: schema initialized")
	return nil
}

// SaveInscription upserts an inscription's fixed columns and records its
// sequence-number mapping in one transaction (spec §4.9's create_obj
// persistence side effect).
func (s *PostgresStore) SaveInscription(ctx context.Context, parent objectid.ObjectID, insc *inscription.Inscription) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsertSQL := `
		INSERT INTO inscription_objects
			(object_id, parent_id, txid, input_index, sequence_number, inscription_number,
			 is_curse, content_type, content_encoding, metaprotocol, body, metadata, owner,
			 offset_sats, frozen)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (object_id) DO UPDATE SET
			owner = EXCLUDED.owner,
			offset_sats = EXCLUDED.offset_sats,
			frozen = EXCLUDED.frozen;
	`
	_, err = tx.Exec(ctx, upsertSQL,
		insc.ObjectID[:], parent[:], insc.Txid[:], int(insc.Index),
		int64(insc.SequenceNumber), int64(insc.InscriptionNumber),
		insc.IsCurse, insc.ContentType, insc.ContentEncoding, insc.Metaprotocol,
		insc.Body, insc.Metadata, insc.Owner, int64(insc.Offset), insc.Frozen,
	)
	if err != nil {
		return fmt.Errorf("objectstore: upsert inscription_objects: %w", err)
	}

	seqSQL := `
		INSERT INTO sequence_index (sequence_number, txid, input_index)
		VALUES ($1, $2, $3)
		ON CONFLICT (sequence_number) DO NOTHING;
	`
	_, err = tx.Exec(ctx, seqSQL, int64(insc.SequenceNumber), insc.Txid[:], int(insc.Index))
	if err != nil {
		return fmt.Errorf("objectstore: upsert sequence_index: %w", err)
	}

	return tx.Commit(ctx)
}

// SaveField upserts a single type-keyed dynamic field value under the
// named area ("permanent", "temporary", or "fields"), JSON-encoding
// value. This is how the opaque-per-type areas.Area bags get a durable
// representation without the store needing to know every metaprotocol
// type that might be attached (spec §4.7, §4.8).
func (s *PostgresStore) SaveField(ctx context.Context, objID objectid.ObjectID, area, fieldType string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("objectstore: marshal field %s/%s: %w", area, fieldType, err)
	}
	sql := `
		INSERT INTO inscription_fields (object_id, area, field_type, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (object_id, area, field_type) DO UPDATE SET value = EXCLUDED.value;
	`
	_, err = s.pool.Exec(ctx, sql, objID[:], area, fieldType, b)
	return err
}

// RemoveField deletes a single typed field, e.g. when an area's Drop
// wipes the temporary bag and the store should follow suit.
func (s *PostgresStore) RemoveField(ctx context.Context, objID objectid.ObjectID, area, fieldType string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM inscription_fields WHERE object_id = $1 AND area = $2 AND field_type = $3`, objID[:], area, fieldType)
	return err
}

// DropArea deletes every field stored under one area for an object, the
// persisted counterpart of Area.Drop.
func (s *PostgresStore) DropArea(ctx context.Context, objID objectid.ObjectID, area string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM inscription_fields WHERE object_id = $1 AND area = $2`, objID[:], area)
	return err
}

// LoadField fetches and JSON-decodes a single typed field into dst.
func (s *PostgresStore) LoadField(ctx context.Context, objID objectid.ObjectID, area, fieldType string, dst any) (bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM inscription_fields WHERE object_id = $1 AND area = $2 AND field_type = $3`, objID[:], area, fieldType).Scan(&raw)
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("objectstore: unmarshal field %s/%s: %w", area, fieldType, err)
	}
	return true, nil
}

// CountByMetaprotocol returns how many inscriptions declare the given
// metaprotocol name, backing a registry-aware dashboard query.
func (s *PostgresStore) CountByMetaprotocol(ctx context.Context, metaprotocol string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM inscription_objects WHERE metaprotocol = $1`, metaprotocol).Scan(&n)
	return n, err
}
