// Package fedora holds the process-wide RDF vocabulary constants the
// migration core matches against: namespace prefixes, well-known
// predicates, and the closed set of LDP interaction models. These are
// initialized once and never mutated, per the source system's treatment
// of vocabulary as fixed, compiled-in knowledge rather than configuration.
package fedora

// InternalPrefix is the URI scheme the target repository uses internally,
// substituted for the configured external base URI during RDF rewriting.
const InternalPrefix = "info:fedora"

// Namespace prefixes recognized while classifying and filtering triples.
const (
	NSLdp      = "http://www.w3.org/ns/ldp#"
	NSFedora   = "http://fedora.info/definitions/v4/repository#"
	NSMemento  = "http://mementoweb.org/ns#"
	NSPremis   = "http://www.loc.gov/premis/rdf/v1#"
	NSEbucore  = "http://www.ebu.ch/metadata/ontologies/ebucore/ebucore#"
	NSRdfSyn   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// RdfType is the rdf:type predicate.
const RdfType = NSRdfSyn + "type"

// Well-known predicates used by resource header synthesis and RDF extraction.
const (
	PredCreatedBy       = NSFedora + "createdBy"
	PredCreated         = NSFedora + "created"
	PredLastModifiedBy  = NSFedora + "lastModifiedBy"
	PredLastModified    = NSFedora + "lastModified"
	PredHasSize         = NSPremis + "hasSize"
	PredHasMessageDigest = NSPremis + "hasMessageDigest"
	PredHasFixity       = NSPremis + "hasFixity"
	PredFilename        = NSEbucore + "filename"
	PredHasMimeType     = NSEbucore + "hasMimeType"
	PredContains        = NSLdp + "contains"
)

// ManagedPredicates is the closed set of predicates dropped from serialized
// RDF because the target repository re-derives them.
var ManagedPredicates = map[string]bool{
	PredContains:         true,
	PredHasFixity:        true,
	PredHasMessageDigest: true,
	PredHasSize:          true,
	PredHasMimeType:      true,
	PredFilename:         true,
}

// InteractionModel identifies the LDP/Fedora interaction model of a resource.
type InteractionModel string

const (
	BasicContainer    InteractionModel = NSLdp + "BasicContainer"
	DirectContainer   InteractionModel = NSLdp + "DirectContainer"
	IndirectContainer InteractionModel = NSLdp + "IndirectContainer"
	RDFSource         InteractionModel = NSLdp + "RDFSource"
	NonRdfSource      InteractionModel = NSFedora + "NonRdfSource"
	NonRdfSourceDesc  InteractionModel = NSFedora + "NonRdfSourceDescription"
	Acl               InteractionModel = "http://www.w3.org/ns/auth/acl#Acl"
)

// containerTypes is the closed set of LDP container rdf:type URIs, ordered
// by specificity: Direct/Indirect containers are also typed BasicContainer
// in real Fedora exports, so the more specific variants must be checked
// first when classifying a resource's interaction model.
var containerTypes = []InteractionModel{
	DirectContainer,
	IndirectContainer,
	BasicContainer,
}

// ClassifyContainer scans a set of rdf:type object URIs and returns the
// first matching container interaction model, in specificity order. It
// returns ("", false) if none of the closed set of container types match,
// in which case the resource is a generic RDFSource.
func ClassifyContainer(typeURIs []string) (InteractionModel, bool) {
	set := make(map[string]bool, len(typeURIs))
	for _, u := range typeURIs {
		set[u] = true
	}
	for _, ct := range containerTypes {
		if set[string(ct)] {
			return ct, true
		}
	}
	return "", false
}

// IsServerManagedType reports whether a rdf:type object URI belongs to the
// LDP or Fedora namespace and is therefore server-managed and dropped on
// serialization.
func IsServerManagedType(typeURI string) bool {
	return hasPrefix(typeURI, NSLdp) || hasPrefix(typeURI, NSFedora)
}

// IsManagedNamespace reports whether a predicate URI falls in the Fedora or
// Memento namespaces, which are dropped wholesale on serialization.
func IsManagedNamespace(predicate string) bool {
	return hasPrefix(predicate, NSFedora) || hasPrefix(predicate, NSMemento)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
