package finding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
)

// Meta is the optional scan metadata stored next to the findings of a results directory.
type Meta struct {
	Timestamp string `json:"timestamp,omitempty"`
	Profile   string `json:"profile,omitempty"`
}

// File is a decoded findings file.
type File struct {
	Meta     Meta
	Findings []Finding
}

// Decode parses a findings document. The document is either a JSON array of findings
// or an object of the form {"meta": {...}, "findings": [...]}.
func Decode(b []byte) (*File, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("findings document is empty: %w", apperr.ErrInvalidInput)
	}
	file := &File{}
	items := b
	if b[0] == '{' {
		doc := struct {
			Meta     Meta            `json:"meta"`
			Findings json.RawMessage `json:"findings"`
		}{}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("decode a findings document: %w", errors.Join(apperr.ErrInvalidInput, err))
		}
		if len(doc.Findings) == 0 {
			return nil, fmt.Errorf("findings document has no findings field: %w", apperr.ErrInvalidInput)
		}
		file.Meta = doc.Meta
		items = doc.Findings
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(items, &raws); err != nil {
		return nil, fmt.Errorf("findings must be a JSON array: %w", errors.Join(apperr.ErrInvalidInput, err))
	}
	if raws == nil {
		return nil, fmt.Errorf("findings must be a JSON array, not null: %w", apperr.ErrInvalidInput)
	}
	file.Findings = make([]Finding, len(raws))
	for i, raw := range raws {
		if err := json.Unmarshal(raw, &file.Findings[i]); err != nil {
			return nil, fmt.Errorf("decode a finding: %w", logerr.WithFields(errors.Join(apperr.ErrInvalidInput, err), logrus.Fields{
				"index": i,
			}))
		}
	}
	return file, nil
}

// ReadFile reads and decodes a findings file. A missing file is reported as apperr.ErrNotFound.
func ReadFile(afs afero.Fs, p string) (*File, error) {
	b, err := afero.ReadFile(afs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read a findings file: %w", logerr.WithFields(apperr.ErrNotFound, logrus.Fields{
				"findings_file": p,
			}))
		}
		return nil, fmt.Errorf("read a findings file: %w", err)
	}
	file, err := Decode(b)
	if err != nil {
		return nil, logerr.WithFields(err, logrus.Fields{ //nolint:wrapcheck
			"findings_file": p,
		})
	}
	return file, nil
}
