// Package cache implements the optional --cache flag: the packed action
// table is REZI-encoded to disk, keyed by a hash of the grammar source,
// so repeat invocations over an unchanged grammar can skip the
// compression and packing pass. This never changes the emitted .c/.h/.out
// output, only whether the pipeline re-derives it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"

	"github.com/dekarrin/lalrgen/internal/pack"
)

// schemaID namespaces the on-disk cache format: bumping it invalidates
// every previously written cache file without needing to parse the old
// format first, since a mismatched SchemaID is rejected outright.
var schemaID = uuid.MustParse("6f9cfdcd-df15-4c4b-9b3d-6ce6b1b4a9b2")

// Hash returns the hex SHA-256 digest of a grammar's source text, used to
// key a cache file to the exact grammar that produced it.
func Hash(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// entry is the on-disk representation of one cached packed action table.
type entry struct {
	SchemaID        string
	GrammarHash     string
	NState          int
	NRule           int
	YYCodeWidthBits int
	ActionWidthBits int
	Symbol          []int
	Code            []int
	Kind            []int
	Rule            []int
	Collide         []int
}

func toEntry(grammarHash string, t *pack.Table) *entry {
	e := &entry{
		SchemaID:        schemaID.String(),
		GrammarHash:     grammarHash,
		NState:          t.NState,
		NRule:           t.NRule,
		YYCodeWidthBits: t.YYCodeWidthBits,
		ActionWidthBits: t.ActionWidthBits,
	}
	for _, slot := range t.Entries {
		e.Symbol = append(e.Symbol, slot.Symbol)
		e.Code = append(e.Code, slot.Code)
		e.Kind = append(e.Kind, int(slot.Kind))
		e.Rule = append(e.Rule, slot.Rule)
		e.Collide = append(e.Collide, slot.Collide)
	}
	return e
}

func (e *entry) toTable() *pack.Table {
	t := &pack.Table{
		NState:          e.NState,
		NRule:           e.NRule,
		YYCodeWidthBits: e.YYCodeWidthBits,
		ActionWidthBits: e.ActionWidthBits,
	}
	for i := range e.Symbol {
		t.Entries = append(t.Entries, pack.Entry{
			Symbol:  e.Symbol[i],
			Code:    e.Code[i],
			Kind:    pack.ActionKindFromInt(e.Kind[i]),
			Rule:    e.Rule[i],
			Collide: e.Collide[i],
		})
	}
	return t
}

// Save REZI-encodes the packed table to path, tagged with the given
// grammar source hash.
func Save(path, grammarHash string, t *pack.Table) error {
	e := toEntry(grammarHash, t)
	data := rezi.EncBinary(e)
	return os.WriteFile(path, data, 0o644)
}

// Load reads path and returns the cached table only if its SchemaID and
// GrammarHash both match; a mismatch (or missing file) is reported via
// the returned bool, not an error, since a cache miss is routine.
func Load(path, grammarHash string) (*pack.Table, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e entry
	n, err := rezi.DecBinary(data, &e)
	if err != nil {
		return nil, false, err
	}
	if n != len(data) {
		return nil, false, nil
	}

	if e.SchemaID != schemaID.String() || e.GrammarHash != grammarHash {
		return nil, false, nil
	}
	return e.toTable(), true, nil
}
