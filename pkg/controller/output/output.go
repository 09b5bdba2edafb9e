// Package output writes command results as indented JSON.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

const filePermission os.FileMode = 0o644

// Write encodes v to the file p, or to stdout if p is empty.
func Write(fs afero.Fs, stdout io.Writer, p string, v any) error {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode the result as JSON: %w", err)
	}
	if p == "" {
		if _, err := buf.WriteTo(stdout); err != nil {
			return fmt.Errorf("write the result to stdout: %w", err)
		}
		return nil
	}
	if err := afero.WriteFile(fs, p, buf.Bytes(), filePermission); err != nil {
		return fmt.Errorf("write the result to a file: %w", err)
	}
	return nil
}
