package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestAuditExample(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "calls.csv")

	out := execute(t, "audit", "--plain", "--csv", csvPath, "./example")

	want := "Num Indirect Call:2\n" +
		"Num Indirect Call covered by devirt:0\n" +
		"Num Indirect Call covered by PGO:0\n" +
		"Num Indirect Call not covered but also not exercised:2\n"
	if out != want {
		t.Fatalf("got:\n%s\nwant:\n%s", out, want)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), ",unexercised\n"); n != 2 {
		t.Fatalf("got %d unexercised rows:\n%s", n, data)
	}
}

func TestDumpExample(t *testing.T) {
	out := execute(t, "dump", "--plain", "--func", "total", "./example")

	for _, want := range []string{".total", "0: entry", "; indirect call"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, ".main") {
		t.Errorf("filtered function dumped:\n%s", out)
	}
}

func TestSplitTarget(t *testing.T) {
	for _, tt := range []struct {
		args         []string
		wantTarget   string
		wantPatterns []string
	}{
		{nil, ".", []string{"./..."}},
		{[]string{"../repo"}, "../repo", []string{"./..."}},
		{[]string{".", "./cmd/...,./internal/..."}, ".", []string{"./cmd/...", "./internal/..."}},
		{[]string{".", "./a", " , "}, ".", []string{"./a"}},
	} {
		target, patterns := splitTarget(tt.args)
		if target != tt.wantTarget || !slices.Equal(patterns, tt.wantPatterns) {
			t.Errorf("splitTarget(%q) = %q, %q; want %q, %q", tt.args, target, patterns, tt.wantTarget, tt.wantPatterns)
		}
	}
}

func TestResolveLocalTarget(t *testing.T) {
	dir, err := resolveTarget(context.Background(), "./example")
	if err != nil {
		t.Fatal(err)
	}
	if dir != "./example" {
		t.Fatalf("got %q, want ./example", dir)
	}

	if _, err := resolveTarget(context.Background(), "https://github.com/picatz"); err == nil {
		t.Fatal("expected an error for a URL without a repository")
	}
}
