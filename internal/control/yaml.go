package control

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Sources []yamlSource `yaml:"sources"`
}

type yamlSource struct {
	File       string            `yaml:"file"`
	SearchType string            `yaml:"searchtype"`
	Options    map[string]string `yaml:"options"`
}

// ParseYAML reads the YAML control form:
//
//	sources:
//	  - file: blastx.outfmt6
//	    searchtype: blastx
//	    options: {prefix: sprot}
//
// Entries without a file or searchtype are recorded as malformed.
func ParseYAML(r io.Reader) (*Spec, error) {
	var doc yamlFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode control yaml: %w", err)
	}

	s := newSpec()
	for i, src := range doc.Sources {
		entry := i + 1
		file := strings.TrimSpace(src.File)
		stype := strings.TrimSpace(src.SearchType)
		if file == "" || stype == "" {
			s.malformedLine(entry, fmt.Sprintf("file=%q searchtype=%q", src.File, src.SearchType), "file and searchtype are required")
			continue
		}

		d := Declaration{
			Filename:   file,
			SearchType: stype,
			Options:    make(map[string]string, len(src.Options)+2),
			Line:       entry,
		}
		for k, v := range src.Options {
			d.Options[k] = v
		}
		d.Options[OptFilename] = file
		d.Options[OptSearchType] = stype
		s.put(d)
	}
	return s, nil
}
