package consent

import (
	"context"
	"database/sql"
	"fmt"

	"consentadmin/pkg/requestcontext"
)

// PostgresStore persists consent records in PostgreSQL. This store is pure
// I/O; status classification and key derivation belong to the engine.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the table this store expects. Deployments run it through their
// own migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS consent (
	hashed_user_id TEXT        NOT NULL,
	targeted_id    TEXT        NOT NULL,
	attribute_hash TEXT        NOT NULL,
	consent_date   TIMESTAMPTZ NOT NULL,
	usage_date     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (hashed_user_id, targeted_id)
);
`

func (s *PostgresStore) GetConsents(ctx context.Context, hashedUserID string) ([]Record, error) {
	query := `
		SELECT targeted_id, attribute_hash
		FROM consent
		WHERE hashed_user_id = $1
		ORDER BY targeted_id
	`
	rows, err := s.db.QueryContext(ctx, query, hashedUserID)
	if err != nil {
		return nil, fmt.Errorf("get consents: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.TargetedID, &r.AttributeHash); err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) SaveConsent(ctx context.Context, hashedUserID, targetedID, attributeHash string) error {
	now := requestcontext.Now(ctx)
	query := `
		INSERT INTO consent (hashed_user_id, targeted_id, attribute_hash, consent_date, usage_date)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (hashed_user_id, targeted_id) DO UPDATE SET
			attribute_hash = EXCLUDED.attribute_hash,
			usage_date = EXCLUDED.usage_date
	`
	if _, err := s.db.ExecContext(ctx, query, hashedUserID, targetedID, attributeHash, now); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteConsent(ctx context.Context, hashedUserID, targetedID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM consent WHERE hashed_user_id = $1 AND targeted_id = $2`,
		hashedUserID, targetedID)
	if err != nil {
		return 0, fmt.Errorf("delete consent: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete consent rows affected: %w", err)
	}
	return removed, nil
}
