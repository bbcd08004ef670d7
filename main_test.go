package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"valc/pkg/compiler"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"prog.val", "prog.vasm"},
		{"dir/prog", "dir/prog.vasm"},
		{"a.b.val", "a.b.vasm"},
	}
	for _, tt := range tests {
		if got := defaultOutputPath(tt.in); got != tt.want {
			t.Errorf("defaultOutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	_, err := compile("break;", compiler.Options{}, false)
	if got := exitCode(err); got != 1 {
		t.Errorf("user error: exit code %d, want 1", got)
	}

	_, err = compiler.Generate(compiler.NewTemp(compiler.KindVoid), compiler.NewSymbolTable(), compiler.Options{})
	if got := exitCode(err); got != 3 {
		t.Errorf("internal error: exit code %d, want 3", got)
	}

	if got := exitCode(fmt.Errorf("disk on fire")); got != 3 {
		t.Errorf("unclassified error: exit code %d, want 3", got)
	}
}

func TestWriteListing(t *testing.T) {
	listing, err := compile("val x = 2; print x * x;", compiler.Options{}, false)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.vasm")
	if err := writeListing(path, listing); err != nil {
		t.Fatalf("writeListing: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != listing {
		t.Errorf("file content mismatch:\n%s", data)
	}
}
