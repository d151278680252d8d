package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfigFile(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "config.go"},
		{[]string{"configure", "--target", "linux"}, "config.go"},
		{[]string{"build", "--config-file", "unikernel.go", "-o", "out"}, "unikernel.go"},
		{[]string{"--config-file=other.go", "query", "name"}, "other.go"},
		{[]string{"--help"}, "config.go"},
	}

	for _, tt := range tests {
		if got := configFile(tt.args); got != tt.want {
			t.Errorf("configFile(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "config.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "cmd", "hello")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOUNDRY_GO_BINARY", "go1.24")

	cmd, err := prepare(context.Background(), sub, []string{"configure", "--target", "linux"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	wantRoot, _ := filepath.Abs(root)
	if cmd.Dir != wantRoot {
		t.Errorf("Dir = %q, want %q", cmd.Dir, wantRoot)
	}
	want := []string{"go1.24", "run", "config.go", "configure", "--target", "linux"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestPrepareMissingSource(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "foundry.yml"), []byte("build_dir: out\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := prepare(context.Background(), root, []string{"--config-file", "missing.go", "build"}); err == nil {
		t.Error("expected an error for a missing configuration source")
	}
}
