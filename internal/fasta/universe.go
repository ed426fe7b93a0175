// Package fasta reads the query universe from a reference FASTA file.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sha1n/pandannotate/internal/textio"
)

// Universe is the ordered set of unique query identifiers of a reference
// file, in order of first appearance.
type Universe struct {
	ids  []string
	seen map[string]struct{}
}

// NewUniverse builds a universe from ids, ignoring repeats.
func NewUniverse(ids ...string) *Universe {
	u := &Universe{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		u.add(id)
	}
	return u
}

func (u *Universe) add(id string) bool {
	if _, ok := u.seen[id]; ok {
		return false
	}
	u.seen[id] = struct{}{}
	u.ids = append(u.ids, id)
	return true
}

// IDs returns the identifiers in order. The slice must not be modified.
func (u *Universe) IDs() []string { return u.ids }

// Len returns the number of identifiers.
func (u *Universe) Len() int { return len(u.ids) }

// Contains reports whether id is part of the universe.
func (u *Universe) Contains(id string) bool {
	_, ok := u.seen[id]
	return ok
}

// ReadUniverse collects the identifier of every header line in r: the first
// whitespace-delimited token after '>'. Headers with no token are skipped.
// dups receives the number of repeated identifiers that were dropped.
func ReadUniverse(r io.Reader) (u *Universe, dups int, err error) {
	u = NewUniverse()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if len(line) == 0 || line[0] != '>' {
			continue
		}
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			continue
		}
		if !u.add(fields[0]) {
			dups++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan fasta: %w", err)
	}
	return u, dups, nil
}

// LoadUniverse reads the universe from path; plain, gzip and zstd files and
// "-" for stdin are accepted.
func LoadUniverse(path string) (*Universe, int, error) {
	rc, err := textio.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open fasta: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return ReadUniverse(rc)
}
