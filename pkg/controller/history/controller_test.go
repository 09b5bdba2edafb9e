package history_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scanmesh/scanmesh/pkg/apperr"
	ctrl "github.com/scanmesh/scanmesh/pkg/controller/history"
	"github.com/scanmesh/scanmesh/pkg/history"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type fakeStore struct {
	scans  []*history.Scan
	limit  int
	closed bool
}

func (s *fakeStore) ListScans(_ context.Context, limit int) ([]*history.Scan, error) {
	s.limit = limit
	return s.scans, nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

func TestController_Run(t *testing.T) {
	t.Parallel()
	total := 3
	store := &fakeStore{scans: []*history.Scan{
		{ID: "2", Timestamp: "2024-02-01T00:00:00Z", Profile: "fast", TotalFindings: &total},
		{ID: "1"},
	}}
	stdout := &bytes.Buffer{}
	c := ctrl.New(afero.NewMemMapFs(), stdout, &ctrl.Param{HistoryDB: "history.db", Limit: 5}, func(string) (ctrl.Store, error) {
		return store, nil
	})
	if err := c.Run(context.Background(), logrus.NewEntry(logrus.New())); err != nil {
		t.Fatal(err)
	}
	exp := `[
  {
    "id": "2",
    "timestamp": "2024-02-01T00:00:00Z",
    "profile": "fast",
    "total_findings": 3
  },
  {
    "id": "1",
    "timestamp": "",
    "profile": "",
    "total_findings": null
  }
]
`
	if diff := cmp.Diff(exp, stdout.String()); diff != "" {
		t.Fatal(diff)
	}
	if store.limit != 5 || !store.closed {
		t.Fatalf("unexpected store state: %+v", store)
	}
}

func TestController_Run_errors(t *testing.T) {
	t.Parallel()
	data := []struct {
		name    string
		param   *ctrl.Param
		wantErr error
	}{
		{name: "no database", param: &ctrl.Param{}, wantErr: apperr.ErrInvalidInput},
		{name: "missing database", param: &ctrl.Param{HistoryDB: "/nonexistent/history.db"}, wantErr: apperr.ErrNotFound},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			err := ctrl.New(afero.NewMemMapFs(), &bytes.Buffer{}, d.param, nil).Run(context.Background(), logrus.NewEntry(logrus.New()))
			if !errors.Is(err, d.wantErr) {
				t.Fatalf("wanted %v, got %v", d.wantErr, err)
			}
		})
	}
}
