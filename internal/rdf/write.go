package rdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"

	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

// WriteTranslateIds stream-serializes m's triples to w in outLang,
// rewriting subject and URI-object identifiers from fromPrefix to toPrefix
// and dropping server-managed triples. It returns the number of triples
// written, mainly for tests asserting on filtering behavior.
func WriteTranslateIds(w io.Writer, m *Model, outLang Lang, fromPrefix, toPrefix string) (int, error) {
	enc := rdf.NewTripleEncoder(w, outLang.format())
	written := 0
	for _, t := range m.Triples {
		if isServerManaged(t) {
			continue
		}
		translated, err := translate(t, fromPrefix, toPrefix)
		if err != nil {
			return written, fmt.Errorf("rdf: translate triple: %w", err)
		}
		if err := enc.Encode(translated); err != nil {
			return written, fmt.Errorf("rdf: encode triple: %w", err)
		}
		written++
	}
	if err := enc.Close(); err != nil {
		return written, fmt.Errorf("rdf: close encoder: %w", err)
	}
	return written, nil
}

// isServerManaged reports whether t is a server-managed triple that the
// target repository re-derives and that is therefore dropped on output:
//   - rdf:type whose object is in the LDP or Fedora namespace, or
//   - predicate in the managed-predicate set, or
//   - predicate in the Fedora or Memento namespaces.
func isServerManaged(t rdf.Triple) bool {
	pred, ok := IsIRI(t.Pred)
	if !ok {
		return false
	}
	if pred == fedora.RdfType {
		if obj, ok := IsIRI(t.Obj); ok && fedora.IsServerManagedType(obj) {
			return true
		}
	}
	if fedora.ManagedPredicates[pred] {
		return true
	}
	return fedora.IsManagedNamespace(pred)
}

// translate rewrites subject and URI-node object identifiers that start
// with fromPrefix, replacing that prefix with toPrefix and stripping any
// trailing slashes. Subj/Obj keep their restricted rdf.Subject/rdf.Object
// typing throughout: only a rewritten IRI (which satisfies both) is ever
// substituted in, and an untouched term is returned as-is rather than
// passed through a widened rdf.Term, which the two field types don't
// accept back.
func translate(t rdf.Triple, fromPrefix, toPrefix string) (rdf.Triple, error) {
	subj, err := translateSubject(t.Subj, fromPrefix, toPrefix)
	if err != nil {
		return rdf.Triple{}, err
	}
	obj, err := translateObject(t.Obj, fromPrefix, toPrefix)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subj: subj, Pred: t.Pred, Obj: obj}, nil
}

func translateSubject(s rdf.Subject, fromPrefix, toPrefix string) (rdf.Subject, error) {
	val, ok := IsIRI(s)
	if !ok || !strings.HasPrefix(val, fromPrefix) {
		return s, nil
	}
	return rewriteIRI(val, fromPrefix, toPrefix)
}

func translateObject(o rdf.Object, fromPrefix, toPrefix string) (rdf.Object, error) {
	val, ok := IsIRI(o)
	if !ok || !strings.HasPrefix(val, fromPrefix) {
		return o, nil
	}
	return rewriteIRI(val, fromPrefix, toPrefix)
}

func rewriteIRI(val, fromPrefix, toPrefix string) (rdf.IRI, error) {
	rest := strings.TrimPrefix(val, fromPrefix)
	if strings.HasSuffix(fromPrefix, "/") && !strings.HasSuffix(toPrefix, "/") {
		// The base URI's trailing slash separates it from the path; keep
		// that separator between the internal prefix and the path.
		rest = "/" + rest
	}
	rewritten := strings.TrimRight(toPrefix+rest, "/")
	iri, err := rdf.NewIRI(rewritten)
	if err != nil {
		return rdf.IRI{}, fmt.Errorf("invalid rewritten IRI %q: %w", rewritten, err)
	}
	return iri, nil
}
