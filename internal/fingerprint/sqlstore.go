package fingerprint

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// SQLStore keeps fingerprints in a shared MariaDB/MySQL table, for
// deployments where several collector hosts take turns running against the
// same gateways and must agree on the last rendered state.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the fingerprint table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS rule_fingerprints (
		gateway VARCHAR(128) NOT NULL PRIMARY KEY,
		digest CHAR(64) NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("fingerprint: create schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, gatewayID string) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx,
		"SELECT digest FROM rule_fingerprints WHERE gateway = ?", gatewayID).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return digest, nil
}

func (s *SQLStore) Save(ctx context.Context, gatewayID, digest string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rule_fingerprints (gateway, digest) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE digest = VALUES(digest)`, gatewayID, digest)
	return err
}
