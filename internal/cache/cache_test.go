package cache

import (
	"path/filepath"
	"testing"

	"github.com/dekarrin/lalrgen/internal/automaton"
	"github.com/dekarrin/lalrgen/internal/pack"
)

func sampleTable() *pack.Table {
	return &pack.Table{
		NState:          4,
		NRule:           2,
		YYCodeWidthBits: 8,
		ActionWidthBits: 8,
		Entries: []pack.Entry{
			{Symbol: 0, Code: 1, Kind: automaton.ActionShift, Collide: -1},
			{Symbol: 1, Code: 5, Kind: automaton.ActionReduce, Rule: 1, Collide: -1},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bin")
	table := sampleTable()

	if err := Save(path, "abc123", table); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, ok, err := Load(path, "abc123")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if loaded.NState != table.NState || len(loaded.Entries) != len(table.Entries) {
		t.Fatalf("round-tripped table mismatch: %+v", loaded)
	}
}

func TestLoadMissesOnHashMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bin")
	if err := Save(path, "abc123", sampleTable()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, ok, err := Load(path, "different-hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss on hash mismatch")
	}
}

func TestLoadMissingFileIsNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.bin")
	_, ok, err := Load(path, "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss for a missing file")
	}
}
