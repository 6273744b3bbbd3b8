// Package postgres implements the VerificationStore on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.VerificationStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the audit table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS verifications (
    id           TEXT PRIMARY KEY,
    fingerprint  TEXT NOT NULL,
    oracle_id    TEXT NOT NULL,
    score        INTEGER NOT NULL,
    verdict      BOOLEAN NOT NULL,
    submitted_at BIGINT NOT NULL,
    tx_id        TEXT NOT NULL DEFAULT '',
    block_number BIGINT NOT NULL DEFAULT 0,
    degraded     BOOLEAN NOT NULL DEFAULT FALSE,
    duplicate    BOOLEAN NOT NULL DEFAULT FALSE,
    payer        TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS verifications_fingerprint_idx ON verifications (fingerprint);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure verifications schema: %w", err)
	}
	return nil
}

func (s *Store) SaveVerification(ctx context.Context, entry verification.Entry) (verification.Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO verifications
    (id, fingerprint, oracle_id, score, verdict, submitted_at, tx_id, block_number, degraded, duplicate, payer, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, string(entry.Fingerprint), string(entry.OracleID), int(entry.Score), entry.Verdict,
		entry.SubmittedAt, entry.TxID, int64(entry.BlockNumber), entry.Degraded, entry.Duplicate,
		entry.Payer, entry.CreatedAt,
	)
	if err != nil {
		return verification.Entry{}, fmt.Errorf("insert verification: %w", err)
	}
	return entry, nil
}

func (s *Store) GetVerification(ctx context.Context, fingerprint verification.Fingerprint) (verification.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, fingerprint, oracle_id, score, verdict, submitted_at, tx_id, block_number, degraded, duplicate, payer, created_at
FROM verifications
WHERE fingerprint = $1
ORDER BY created_at DESC
LIMIT 1`, string(fingerprint))

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return verification.Entry{}, fmt.Errorf("verification not found: %s", fingerprint)
	}
	return entry, err
}

func (s *Store) ListVerifications(ctx context.Context, limit int) ([]verification.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, fingerprint, oracle_id, score, verdict, submitted_at, tx_id, block_number, degraded, duplicate, payer, created_at
FROM verifications
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var entries []verification.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (verification.Entry, error) {
	var (
		entry       verification.Entry
		fingerprint string
		oracleID    string
		score       int
		blockNumber int64
	)
	err := row.Scan(&entry.ID, &fingerprint, &oracleID, &score, &entry.Verdict, &entry.SubmittedAt,
		&entry.TxID, &blockNumber, &entry.Degraded, &entry.Duplicate, &entry.Payer, &entry.CreatedAt)
	if err != nil {
		return verification.Entry{}, err
	}
	entry.Fingerprint = verification.Fingerprint(fingerprint)
	entry.OracleID = verification.OracleID(oracleID)
	entry.Score = verification.Score(score)
	entry.BlockNumber = uint64(blockNumber)
	return entry, nil
}
