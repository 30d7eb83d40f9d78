package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/viant/mcpconsole/schema"
	_ "modernc.org/sqlite"
)

// SQLiteDurable implements Durable on top of SQLite
type SQLiteDurable struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteDurable opens (or creates) the database at path.
// Parent directories are created if needed.
func NewSQLiteDurable(path string) (*SQLiteDurable, error) {
	logger := slog.Default().With("component", "durable-store")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	s := &SQLiteDurable{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	logger.Info("durable store initialized", "path", path)
	return s, nil
}

func (s *SQLiteDurable) createSchema() error {
	ddl := `
		CREATE TABLE IF NOT EXISTS mcp_servers (
			uuid TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS oauth_sessions (
			mcp_server_uuid TEXT PRIMARY KEY,
			client_information TEXT,
			tokens TEXT,
			code_verifier TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (mcp_server_uuid) REFERENCES mcp_servers(uuid) ON DELETE CASCADE
		);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// RegisterServer inserts the server record if missing.
func (s *SQLiteDurable) RegisterServer(ctx context.Context, descriptor *schema.ServerDescriptor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mcp_servers (uuid, name, type, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(uuid) DO UPDATE SET name = excluded.name, type = excluded.type`,
		descriptor.ID, descriptor.Name, string(descriptor.Kind), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("registering server %v: %w", descriptor.ID, err)
	}
	return nil
}

// DeleteServer removes the server record together with its OAuth session.
func (s *SQLiteDurable) DeleteServer(ctx context.Context, serverID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM mcp_servers WHERE uuid = ?`, serverID)
	return err
}

func (s *SQLiteDurable) ServerExists(ctx context.Context, serverID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM mcp_servers WHERE uuid = ?`, serverID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking server %v: %w", serverID, err)
	}
	return count > 0, nil
}

func (s *SQLiteDurable) Get(ctx context.Context, serverID string) (*Record, error) {
	var clientInformation, tokens, codeVerifier sql.NullString
	var updatedAtStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT client_information, tokens, code_verifier, updated_at FROM oauth_sessions WHERE mcp_server_uuid = ?`,
		serverID).Scan(&clientInformation, &tokens, &codeVerifier, &updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading oauth session %v: %w", serverID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	ret := &Record{ServerID: serverID, CodeVerifier: codeVerifier.String, UpdatedAt: updatedAt}
	if clientInformation.Valid && clientInformation.String != "" {
		ret.ClientInformation = []byte(clientInformation.String)
	}
	if tokens.Valid && tokens.String != "" {
		ret.Tokens = []byte(tokens.String)
	}
	return ret, nil
}

func (s *SQLiteDurable) Upsert(ctx context.Context, record *Record) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_sessions (mcp_server_uuid, client_information, tokens, code_verifier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(mcp_server_uuid) DO UPDATE SET
			client_information = COALESCE(excluded.client_information, oauth_sessions.client_information),
			tokens = COALESCE(excluded.tokens, oauth_sessions.tokens),
			code_verifier = COALESCE(excluded.code_verifier, oauth_sessions.code_verifier),
			updated_at = excluded.updated_at`,
		record.ServerID, nullable(string(record.ClientInformation)), nullable(string(record.Tokens)),
		nullable(record.CodeVerifier), now, now)
	if err != nil {
		return fmt.Errorf("saving oauth session %v: %w", record.ServerID, err)
	}
	s.logger.Debug("oauth session saved", "server", record.ServerID)
	return nil
}

// Close closes the database
func (s *SQLiteDurable) Close() error {
	return s.db.Close()
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
