package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestExportAndImportCmds(t *testing.T) {
	a := newTestApp(t)
	storeTestMemory(t, a, "https://blog.example.com/one")
	storeTestMemory(t, a, "https://blog.example.com/two")

	path := filepath.Join(t.TempDir(), "state.json")

	export := NewExportCmd(fixedLoader(a))
	export.SetArgs([]string{path})
	export.SetOut(new(bytes.Buffer))
	if err := export.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("export wrote an empty file")
	}

	fresh := newTestApp(t)
	imp := NewImportCmd(fixedLoader(fresh))
	imp.SetArgs([]string{path})
	imp.SetOut(new(bytes.Buffer))
	if err := imp.Execute(); err != nil {
		t.Fatalf("import: %v", err)
	}

	if fresh.store.Len() != 2 {
		t.Errorf("imported store has %d records, want 2", fresh.store.Len())
	}
}

func TestIngestCmd(t *testing.T) {
	a := newTestApp(t)

	path := filepath.Join(t.TempDir(), "capture.json")
	capture := `{"url":"https://example.com/a","text":{"title":"Dropped capture"}}`
	if err := os.WriteFile(path, []byte(capture), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := NewIngestCmd(fixedLoader(a))
	cmd.SetArgs([]string{path})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if a.store.Len() != 1 {
		t.Errorf("store has %d records, want 1", a.store.Len())
	}
	if !bytes.Contains(out.Bytes(), []byte("stored")) {
		t.Errorf("output = %q", out.String())
	}
}

func TestIngestCmdRejectsMalformed(t *testing.T) {
	a := newTestApp(t)

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := NewIngestCmd(fixedLoader(a))
	cmd.SetArgs([]string{path})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for malformed capture")
	}
}
