package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/intellidock-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketAndPIDPaths(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	tests := []struct {
		fn   func() (string, error)
		want string
	}{
		{SocketPath, filepath.Join(td, "intellidock.sock")},
		{PIDPath, filepath.Join(td, "intellidock.pid")},
	}
	for _, tt := range tests {
		got, err := tt.fn()
		if err != nil {
			t.Fatalf("path error: %v", err)
		}
		if got != tt.want {
			t.Fatalf("got %q, want %q", got, tt.want)
		}
	}
}

func TestReadPID(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	if _, err := ReadPID(); !os.IsNotExist(err) {
		t.Fatalf("ReadPID() without file: %v", err)
	}

	path := filepath.Join(td, "intellidock.pid")
	if err := os.WriteFile(path, []byte("4242\n"), 0600); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPID()
	if err != nil || pid != 4242 {
		t.Fatalf("ReadPID() = %d, %v", pid, err)
	}

	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPID(); err == nil {
		t.Fatal("expected error for invalid pid")
	}
}
