package output_test

import (
	"bytes"
	"testing"

	"github.com/scanmesh/scanmesh/pkg/controller/output"
	"github.com/spf13/afero"
)

func TestWrite(t *testing.T) {
	t.Parallel()
	data := []struct {
		name      string
		path      string
		expStdout string
		expFile   string
	}{
		{name: "stdout", expStdout: "{\n  \"a\": 1\n}\n"},
		{name: "file", path: "out/result.json", expFile: "{\n  \"a\": 1\n}\n"},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			stdout := &bytes.Buffer{}
			if err := output.Write(fs, stdout, d.path, map[string]int{"a": 1}); err != nil {
				t.Fatal(err)
			}
			if stdout.String() != d.expStdout {
				t.Fatalf("wanted %q, got %q", d.expStdout, stdout.String())
			}
			if d.path == "" {
				return
			}
			b, err := afero.ReadFile(fs, d.path)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != d.expFile {
				t.Fatalf("wanted %q, got %q", d.expFile, string(b))
			}
		})
	}
}
