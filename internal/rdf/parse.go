package rdf

import (
	"io"
	"os"

	"github.com/knakk/rdf"
)

// ParseFile reads the RDF document at path using the given syntax and
// returns its triple set. A malformed document surfaces as *ParseError,
// never a bare decode error, so callers can type-switch on the failure
// kind.
func ParseFile(path string, lang Lang) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	return Parse(f, path, lang)
}

// Parse reads an RDF document from r, tagging any error with name (normally
// the source path) for diagnostics.
func Parse(r io.Reader, name string, lang Lang) (*Model, error) {
	dec := rdf.NewTripleDecoder(r, lang.format())
	var triples []rdf.Triple
	for {
		t, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: name, Err: err}
		}
		triples = append(triples, t)
	}
	return &Model{Triples: triples}, nil
}
