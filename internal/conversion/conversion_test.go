package conversion

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "visit.txt"), []byte("客户：预算300万。\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DirSource{Dir: dir}.Text("visit.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "客户：预算300万。" {
		t.Fatalf("got %q", got)
	}
}

func TestDirSourceMissingFile(t *testing.T) {
	_, err := DirSource{Dir: t.TempDir()}.Text("nope.docx")
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConversionError, got %T: %v", err, err)
	}
	if ce.Filename != "nope.docx" {
		t.Fatalf("error should carry the source name, got %q", ce.Filename)
	}
}

func TestDirSourceEmptyTranscript(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := DirSource{Dir: dir}.Text("empty.docx")
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("empty content must be a ConversionError, got %T: %v", err, err)
	}
}

func TestServiceClientMock(t *testing.T) {
	t.Setenv("USE_MOCK_CONVERT", "true")
	got, err := (ServiceClient{}).Text("visit.docx")
	if err != nil {
		t.Fatalf("mock conversion failed: %v", err)
	}
	if got == "" {
		t.Fatal("mock conversion returned empty text")
	}
}
