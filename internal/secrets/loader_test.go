package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("COLLAB_TEST_SECRET", "  from-env ")

	tests := []struct {
		name    string
		src     Source
		expect  string
		errPart string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "COLLAB_TEST_SECRET"}, expect: "from-file"},
		{name: "inline before env", src: Source{Value: " inline ", Env: "COLLAB_TEST_SECRET"}, expect: "inline"},
		{name: "env fallback", src: Source{Env: "COLLAB_TEST_SECRET"}, expect: "from-env"},
		{name: "missing env", src: Source{Name: "api key", Env: "COLLAB_TEST_UNSET"}, errPart: "set COLLAB_TEST_UNSET"},
		{name: "empty file", src: Source{Name: "api key", File: emptyFile}, errPart: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "nope")}, errPart: "reading secret"},
		{name: "nothing", src: Source{Name: "token secret"}, errPart: "token secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.errPart != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errPart) {
					t.Fatalf("expected error containing %q, got %v", tt.errPart, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
