package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/finding"
	"github.com/sirupsen/logrus"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

const findingColumns = "fingerprint, severity, tool, rule_id, path, start_line, message, raw_finding"

type findingRow struct {
	fingerprint sql.NullString
	severity    sql.NullString
	tool        sql.NullString
	ruleID      sql.NullString
	path        sql.NullString
	startLine   sql.NullInt64
	message     sql.NullString
	raw         sql.NullString
}

// ListFindings returns the findings stored for a scan in insertion order.
// Rows with an unreadable raw_finding column are kept with their column values only.
func (s *Store) ListFindings(ctx context.Context, logE *logrus.Entry, scanID string) ([]finding.Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+findingColumns+" FROM findings WHERE scan_id = ? ORDER BY rowid", scanID)
	if err != nil {
		return nil, logerr.WithFields(fmt.Errorf("query findings: %w", err), logrus.Fields{ //nolint:wrapcheck
			"scan_id": scanID,
		})
	}
	defer rows.Close()

	var findings []finding.Finding
	for rows.Next() {
		var r findingRow
		if err := rows.Scan(&r.fingerprint, &r.severity, &r.tool, &r.ruleID, &r.path, &r.startLine, &r.message, &r.raw); err != nil {
			return nil, logerr.WithFields(fmt.Errorf("read a finding: %w", err), logrus.Fields{ //nolint:wrapcheck
				"scan_id": scanID,
			})
		}
		f, err := r.toFinding()
		if err != nil {
			logerr.WithError(logE, err).WithFields(logrus.Fields{
				"scan_id":     scanID,
				"fingerprint": r.fingerprint.String,
			}).Warn("ignore the unreadable raw_finding column")
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, logerr.WithFields(fmt.Errorf("iterate findings: %w", err), logrus.Fields{ //nolint:wrapcheck
			"scan_id": scanID,
		})
	}
	return findings, nil
}

// toFinding merges the raw_finding JSON with the indexed columns. Columns win.
// The returned finding is usable even when an error is returned.
func (r *findingRow) toFinding() (finding.Finding, error) {
	var f finding.Finding
	var decodeErr error
	if r.raw.Valid && r.raw.String != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(r.raw.String), &m); err != nil {
			decodeErr = fmt.Errorf("decode raw_finding: %w: %w", apperr.ErrMalformedRecord, err)
		} else {
			if err := json.Unmarshal([]byte(r.raw.String), &f); err != nil {
				decodeErr = fmt.Errorf("decode raw_finding: %w: %w", apperr.ErrMalformedRecord, err)
			}
			if f.Raw == nil {
				f.Raw = m
			}
		}
	}
	f.ID = r.fingerprint.String
	if r.severity.Valid {
		f.Severity = finding.ParseSeverity(r.severity.String)
	}
	f.Severity = f.Severity.Normalize()
	if r.tool.Valid {
		f.Tool.Name = r.tool.String
	}
	if r.ruleID.Valid {
		f.RuleID = r.ruleID.String
	}
	if r.path.Valid {
		f.Location.Path = r.path.String
	}
	if r.startLine.Valid {
		f.Location.StartLine = int(r.startLine.Int64)
	}
	if r.message.Valid {
		f.Message = r.message.String
	}
	return f, decodeErr
}
