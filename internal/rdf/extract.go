package rdf

import "time"

// dateLayouts are tried in order when parsing a date literal; Fedora emits
// xsd:dateTime values with second precision and a literal "Z" offset, but
// some exports carry a numeric offset instead.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
}

// FirstValue returns the lexical value of the first literal object found
// for predicate, scanning in document order.
func (m *Model) FirstValue(predicate string) (string, bool) {
	for _, t := range m.Triples {
		pred, ok := IsIRI(t.Pred)
		if !ok || pred != predicate {
			continue
		}
		if v, ok := IsLiteral(t.Obj); ok {
			return v, true
		}
	}
	return "", false
}

// URIs returns every IRI object asserted for predicate, in document order.
// The result may be empty but is never nil-checked by callers; an absent
// predicate yields a nil slice.
func (m *Model) URIs(predicate string) []string {
	var out []string
	for _, t := range m.Triples {
		pred, ok := IsIRI(t.Pred)
		if !ok || pred != predicate {
			continue
		}
		if v, ok := IsIRI(t.Obj); ok {
			out = append(out, v)
		}
	}
	return out
}

// DateValue returns the first literal value for predicate parsed as a UTC
// instant, truncated to second precision.
func (m *Model) DateValue(predicate string) (time.Time, bool) {
	v, ok := m.FirstValue(predicate)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}
