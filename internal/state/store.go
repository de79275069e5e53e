// Package state stores catalog snapshots in a local SQLite database so a
// catalog introspected from a live source can be resolved against later
// without a connection.
package state

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/leapstack-labs/fedsql/pkg/catalog"
)

// ErrNotOpen is returned when the store has no open database.
var ErrNotOpen = errors.New("database not opened")

// NotFoundError reports an unknown snapshot reference.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot %q not found", e.Ref)
}

// Snapshot describes a stored catalog.
type Snapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	Groups     int       `json:"groups"`
	Procedures int       `json:"procedures"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is a SQLite-backed catalog snapshot store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the store at path and runs pending
// migrations. Use ":memory:" for an in-memory store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A second connection to :memory: would see an empty database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("opened snapshot store", slog.String("path", path))
	return s, nil
}

// Close closes the SQLite database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Save stores the groups, procedures and extra functions of m under name.
// Saving under an existing name keeps the older snapshots; Load by name
// returns the newest.
func (s *Store) Save(ctx context.Context, name, source string, m *catalog.Memory, functions []*catalog.Signature) (*Snapshot, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if name == "" {
		return nil, errors.New("snapshot name is required")
	}

	var buf bytes.Buffer
	if err := catalog.Encode(&buf, catalog.ToDocument(m, functions)); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:         uuid.New().String(),
		Name:       name,
		Source:     source,
		Groups:     len(m.Groups()),
		Procedures: len(m.Procedures()),
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, source, group_count, proc_count, document, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.Source, snap.Groups, snap.Procedures, buf.String(), snap.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug("saved snapshot",
		slog.String("id", snap.ID),
		slog.String("name", name),
		slog.Int("groups", snap.Groups))
	return snap, nil
}

// Load returns the catalog stored under ref, which is a snapshot id or a
// name. A name selects the newest snapshot saved under it.
func (s *Store) Load(ctx context.Context, ref string) (*catalog.Memory, *Snapshot, error) {
	if s.db == nil {
		return nil, nil, ErrNotOpen
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, source, group_count, proc_count, created_at, document
		 FROM snapshots
		 WHERE id = ? OR name = ?
		 ORDER BY id = ? DESC, created_at DESC, rowid DESC
		 LIMIT 1`,
		ref, ref, ref)

	var snap Snapshot
	var created int64
	var document string
	err := row.Scan(&snap.ID, &snap.Name, &snap.Source, &snap.Groups, &snap.Procedures, &created, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, &NotFoundError{Ref: ref}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load snapshot %s: %w", ref, err)
	}
	snap.CreatedAt = time.Unix(0, created).UTC()

	doc, err := catalog.DecodeDocument([]byte(document))
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	m, err := catalog.FromDocument(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return m, &snap, nil
}

// List returns every snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source, group_count, proc_count, created_at
		 FROM snapshots
		 ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created int64
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Source, &snap.Groups, &snap.Procedures, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return out, nil
}

// Delete removes the snapshot with the given id, or every snapshot saved
// under the given name.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if s.db == nil {
		return ErrNotOpen
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ? OR name = ?`, ref, ref)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", ref, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", ref, err)
	}
	if n == 0 {
		return &NotFoundError{Ref: ref}
	}
	return nil
}

// Prune keeps the newest keep snapshots of every name and deletes the rest.
// It returns the number of snapshots removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY name ORDER BY created_at DESC, rowid DESC) AS rn
				FROM snapshots
			) WHERE rn > ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
