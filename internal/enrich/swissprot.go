// Package enrich cross-references best-hit subject ids against external
// protein databases.
package enrich

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sha1n/pandannotate/internal/table"
	"github.com/sha1n/pandannotate/internal/textio"
)

// SwissProtDatabase is the database name served by SwissProtMap.
const SwissProtDatabase = "swissprot"

// DefaultCacheSize bounds the hit id lookup cache.
const DefaultCacheSize = 4096

// ErrUnsupportedDatabase is returned for a database the map cannot serve.
var ErrUnsupportedDatabase = errors.New("unsupported enrichment database")

// Entry is one row of the SwissProt map.
type Entry struct {
	ProteinID string
	Taxon     string
	GeneID    string
}

// Columns added by Enrich, before the parser namespaces them.
const (
	fieldTaxon = "taxon"
	fieldGene  = "gene"
)

type lookup struct {
	entry Entry
	ok    bool
}

// SwissProtMap resolves SwissProt subject ids to taxon and gene id.
type SwissProtMap struct {
	entries map[string]Entry
	cache   *lru.Cache[string, lookup]
}

// ParseSwissProtMap reads tab-delimited "protein id, taxon, gene id" rows.
// Blank lines and '#' comments are skipped; a missing gene id is allowed.
func ParseSwissProtMap(r io.Reader) (*SwissProtMap, error) {
	cache, err := lru.New[string, lookup](DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	m := &SwissProtMap{entries: make(map[string]Entry), cache: cache}

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("sprot map line %d: expected at least 2 fields, got %d", n, len(fields))
		}
		e := Entry{ProteinID: strings.TrimSpace(fields[0]), Taxon: strings.TrimSpace(fields[1])}
		if len(fields) > 2 {
			e.GeneID = strings.TrimSpace(fields[2])
		}
		m.entries[e.ProteinID] = e
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read sprot map: %w", err)
	}
	return m, nil
}

// LoadSwissProtMap reads the map at path.
func LoadSwissProtMap(path string) (*SwissProtMap, error) {
	rc, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sprot map: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return ParseSwissProtMap(rc)
}

// Len returns the number of map entries.
func (m *SwissProtMap) Len() int { return len(m.entries) }

// Lookup resolves a subject id. Exact ids match first; ids of the form
// db|ACCESSION|NAME also match on ACCESSION, then NAME, and a trailing
// version (P12345.2) is ignored.
func (m *SwissProtMap) Lookup(hitID string) (Entry, bool) {
	if l, ok := m.cache.Get(hitID); ok {
		return l.entry, l.ok
	}
	e, ok := m.resolve(hitID)
	m.cache.Add(hitID, lookup{entry: e, ok: ok})
	return e, ok
}

func (m *SwissProtMap) resolve(hitID string) (Entry, bool) {
	if e, ok := m.entries[hitID]; ok {
		return e, true
	}
	for _, cand := range candidates(hitID) {
		if e, ok := m.entries[cand]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

func candidates(hitID string) []string {
	var out []string
	parts := strings.Split(hitID, "|")
	if len(parts) >= 2 {
		out = append(out, parts[1:]...)
	}
	if i := strings.LastIndexByte(hitID, '.'); i > 0 && !strings.Contains(hitID, "|") {
		out = append(out, hitID[:i])
	}
	return out
}

// Enrich adds swissprot_taxon and swissprot_gene columns resolved from
// hitColumn. Rows without a hit or without a map entry get missing cells.
func (m *SwissProtMap) Enrich(t *table.Table, hitColumn, database string) (*table.Table, error) {
	if database != SwissProtDatabase {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, database)
	}
	if !t.HasColumn(hitColumn) {
		return nil, fmt.Errorf("%w: %s", table.ErrUnknownColumn, hitColumn)
	}

	field := func(pick func(Entry) string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			id, ok := t.Get(key, hitColumn)
			if !ok {
				return "", false
			}
			e, ok := m.Lookup(id)
			if !ok {
				return "", false
			}
			v := pick(e)
			return v, v != ""
		}
	}

	if err := t.AddColumn(database+"_"+fieldTaxon, field(func(e Entry) string { return e.Taxon })); err != nil {
		return nil, err
	}
	if err := t.AddColumn(database+"_"+fieldGene, field(func(e Entry) string { return e.GeneID })); err != nil {
		return nil, err
	}
	return t, nil
}
