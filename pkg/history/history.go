// Package history reads past scans from the SQLite database written by the scan pipeline.
// The database is opened read-only.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/sirupsen/logrus"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
	_ "modernc.org/sqlite" // register the sqlite driver
)

const driverName = "sqlite"

// Scan is one row of the scans table.
type Scan struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Profile       string `json:"profile"`
	// TotalFindings is nil if the scan didn't record a count.
	TotalFindings *int `json:"total_findings"`
}

// Store reads scans and their findings from a history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the history database at path. It returns apperr.ErrNotFound if the file doesn't exist.
func Open(path string) (*Store, error) {
	fields := logrus.Fields{"history_db": path}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, logerr.WithFields(fmt.Errorf("history database doesn't exist: %w", apperr.ErrNotFound), fields) //nolint:wrapcheck
		}
		return nil, logerr.WithFields(fmt.Errorf("check if the history database exists: %w", err), fields) //nolint:wrapcheck
	}
	db, err := sql.Open(driverName, dsn(path))
	if err != nil {
		return nil, logerr.WithFields(fmt.Errorf("open the history database: %w", err), fields) //nolint:wrapcheck
	}
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close the history database: %w", closeErr))
		}
		return nil, logerr.WithFields(fmt.Errorf("connect to the history database: %w", err), fields) //nolint:wrapcheck
	}
	return &Store{db: db, path: path}, nil
}

// uriEscaper escapes the characters SQLite URI filenames reserve.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23") //nolint:gochecknoglobals

// dsn returns a read-only SQLite URI filename for path.
func dsn(path string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=ro"
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close the history database: %w", err)
	}
	return nil
}

const scanColumns = "CAST(id AS TEXT), timestamp_iso, profile, total_findings"

// GetScan returns the scan with the given id, or apperr.ErrNotFound.
func (s *Store) GetScan(ctx context.Context, id string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scanColumns+" FROM scans WHERE id = ?", id)
	scan, err := scanScan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, logerr.WithFields(fmt.Errorf("scan isn't found: %w", apperr.ErrNotFound), logrus.Fields{ //nolint:wrapcheck
				"scan_id": id,
			})
		}
		return nil, logerr.WithFields(fmt.Errorf("get a scan: %w", err), logrus.Fields{ //nolint:wrapcheck
			"scan_id": id,
		})
	}
	return scan, nil
}

// ListScans returns scans from the newest to the oldest.
// limit <= 0 returns every scan.
func (s *Store) ListScans(ctx context.Context, limit int) ([]*Scan, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+scanColumns+" FROM scans ORDER BY timestamp_iso DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("read a scan: %w", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return scans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScan(row rowScanner) (*Scan, error) {
	var (
		id        string
		timestamp sql.NullString
		profile   sql.NullString
		total     sql.NullInt64
	)
	if err := row.Scan(&id, &timestamp, &profile, &total); err != nil {
		return nil, err //nolint:wrapcheck
	}
	scan := &Scan{
		ID:        id,
		Timestamp: timestamp.String,
		Profile:   profile.String,
	}
	if total.Valid {
		n := int(total.Int64)
		scan.TotalFindings = &n
	}
	return scan, nil
}
