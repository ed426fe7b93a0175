// Package control parses the control file that declares the source files to
// merge, their searchtype and their free-form options.
package control

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sha1n/pandannotate/internal/textio"
)

// Option keys that every declaration carries.
const (
	OptFilename   = "filename"
	OptSearchType = "searchtype"
	OptPrefix     = "prefix"
)

// Declaration is one declared source file.
type Declaration struct {
	Filename   string
	SearchType string
	// Options holds the parsed key=value options plus filename and searchtype.
	Options map[string]string
	// Line is the 1-based control file line (or YAML entry) it came from.
	Line int
}

// Option returns the value of key and whether it was declared.
func (d Declaration) Option(key string) (string, bool) {
	v, ok := d.Options[key]
	return v, ok
}

// Prefix returns the prefix option, or "" when absent.
func (d Declaration) Prefix() string {
	return d.Options[OptPrefix]
}

// MalformedLine is a control line that was skipped.
type MalformedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Duplicate records a filename declared more than once; the later
// declaration replaced the earlier one.
type Duplicate struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Previous int    `json:"previous_line"`
}

// Spec is the ordered set of declarations keyed by filename.
type Spec struct {
	order      []string
	decls      map[string]Declaration
	malformed  []MalformedLine
	duplicates []Duplicate
}

func newSpec() *Spec {
	return &Spec{decls: make(map[string]Declaration)}
}

// put stores d. A repeated filename keeps its first position but takes the
// newer declaration.
func (s *Spec) put(d Declaration) {
	if prev, ok := s.decls[d.Filename]; ok {
		s.duplicates = append(s.duplicates, Duplicate{Filename: d.Filename, Line: d.Line, Previous: prev.Line})
	} else {
		s.order = append(s.order, d.Filename)
	}
	s.decls[d.Filename] = d
}

func (s *Spec) malformedLine(line int, text, reason string) {
	s.malformed = append(s.malformed, MalformedLine{Line: line, Text: text, Reason: reason})
}

// Declarations returns the declarations in control file order.
func (s *Spec) Declarations() []Declaration {
	out := make([]Declaration, 0, len(s.order))
	for _, f := range s.order {
		out = append(out, s.decls[f])
	}
	return out
}

// Lookup returns the declaration for filename.
func (s *Spec) Lookup(filename string) (Declaration, bool) {
	d, ok := s.decls[filename]
	return d, ok
}

// Len returns the number of distinct declarations.
func (s *Spec) Len() int { return len(s.order) }

// Malformed returns the skipped lines.
func (s *Spec) Malformed() []MalformedLine { return s.malformed }

// Duplicates returns the overwritten declarations.
func (s *Spec) Duplicates() []Duplicate { return s.duplicates }

// Parse reads the tab-delimited control format:
//
//	<filename>\t<searchtype>\t<name>=<value>;<name>=<value>...
//
// Blank lines and lines starting with '#' are ignored. Lines with fewer than
// two fields are recorded as malformed. Option tokens that are not exactly
// name=value are dropped.
func Parse(r io.Reader) (*Spec, error) {
	s := newSpec()
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			s.malformedLine(n, line, "expected at least 2 tab-delimited fields")
			continue
		}

		d := Declaration{
			Filename:   strings.TrimSpace(fields[0]),
			SearchType: strings.TrimSpace(fields[1]),
			Options:    make(map[string]string),
			Line:       n,
		}
		if len(fields) > 2 {
			for _, tok := range strings.Split(strings.TrimSpace(fields[2]), ";") {
				kv := strings.Split(tok, "=")
				if len(kv) == 2 {
					d.Options[kv[0]] = kv[1]
				}
			}
		}
		d.Options[OptFilename] = d.Filename
		d.Options[OptSearchType] = d.SearchType
		s.put(d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read control file: %w", err)
	}
	return s, nil
}

// Load parses the control file at path, choosing the YAML form for .yaml and
// .yml files (optionally compressed).
func Load(path string) (*Spec, error) {
	rc, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open control file: %w", err)
	}
	defer func() { _ = rc.Close() }()

	if isYAML(path) {
		return ParseYAML(rc)
	}
	return Parse(rc)
}

func isYAML(path string) bool {
	base := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".zst")
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
