package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestReadJSONLMissingFile(t *testing.T) {
	records, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("readJSONL on missing file: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestWriteJSONLAtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.jsonl")
	in := []json.RawMessage{
		json.RawMessage(`{"product_id":"a"}`),
		json.RawMessage(`{"product_id":"b"}`),
	}

	if err := writeJSONLAtomic(path, in); err != nil {
		t.Fatalf("writeJSONLAtomic: %v", err)
	}
	out, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d records, got %d", len(in), len(out))
	}
	for i := range in {
		if string(out[i]) != string(in[i]) {
			t.Errorf("record %d = %s, want %s", i, out[i], in[i])
		}
	}
}

func TestWriteJSONLAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.jsonl")

	if err := writeJSONLAtomic(path, nil); err != nil {
		t.Fatalf("writeJSONLAtomic: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "products.jsonl" {
		t.Errorf("expected only products.jsonl, got %v", entries)
	}
}

func TestWriteJSONLAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "products.jsonl")
	if err := writeJSONLAtomic(path, nil); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}
