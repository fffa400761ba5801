package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/mcp-covid-qr/internal/errors"
)

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, size int) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o600); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		return path
	}

	small := write("small.pdf", 10)
	bare := write("certificate", 10)
	empty := write("empty.pdf", 0)
	large := write("large.pdf", 2048)
	image := write("scan.png", 10)

	tests := []struct {
		name      string
		validator *Validator
		path      string
		wantKind  errors.Kind
	}{
		{name: "valid pdf", validator: NewValidator(1024), path: small},
		{name: "name without extension", validator: NewValidator(1024), path: bare},
		{name: "image name", validator: NewValidator(1024), path: image},
		{name: "no size limit", validator: NewValidator(0), path: large},
		{name: "empty path", validator: NewValidator(1024), path: "", wantKind: errors.KindUnsupportedInput},
		{name: "missing file", validator: NewValidator(1024), path: filepath.Join(dir, "nope.pdf"), wantKind: errors.KindRasterIO},
		{name: "directory", validator: NewValidator(1024), path: dir, wantKind: errors.KindUnsupportedInput},
		{name: "empty file", validator: NewValidator(1024), path: empty, wantKind: errors.KindUnsupportedInput},
		{name: "too large", validator: NewValidator(1024), path: large, wantKind: errors.KindUnsupportedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.ValidateFile(tt.path)
			if tt.wantKind == errors.KindUnknown {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s error but got none", tt.wantKind)
			}
			if got := errors.KindOf(err); got != tt.wantKind {
				t.Errorf("expected kind %s, got %s (%v)", tt.wantKind, got, err)
			}
		})
	}
}

func TestValidator_MaxFileSize(t *testing.T) {
	v := NewValidator(4096)
	if v.MaxFileSize() != 4096 {
		t.Errorf("expected max file size 4096, got %d", v.MaxFileSize())
	}
	if v.String() != "Validator{MaxFileSize: 4096}" {
		t.Errorf("unexpected String() result: %s", v.String())
	}
}
