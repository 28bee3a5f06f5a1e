package migrate

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/rdf"
	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

// stateToken derives the OCFL resource header state token from a
// last-modified instant: the uppercased hex MD5 digest of the instant's
// epoch milliseconds, decimal-encoded.
func stateToken(lastModifiedMillis int64) string {
	sum := md5.Sum([]byte(strconv.FormatInt(lastModifiedMillis, 10)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// commonHeaders builds the fields shared by every interaction model:
// attribution, timestamps, and the derived state token. lastModified is
// required; created falls back to lastModified when the RDF omits it.
func commonHeaders(fullID, parentID string, m *rdf.Model) (ocfl.Headers, error) {
	lastModified, ok := m.DateValue(fedora.PredLastModified)
	if !ok {
		return ocfl.Headers{}, &Error{Kind: MissingField, Descriptor: fullID,
			Err: fmt.Errorf("missing %s", fedora.PredLastModified)}
	}
	created, ok := m.DateValue(fedora.PredCreated)
	if !ok {
		created = lastModified
	}
	createdBy, _ := m.FirstValue(fedora.PredCreatedBy)
	lastModifiedBy, _ := m.FirstValue(fedora.PredLastModifiedBy)

	return ocfl.Headers{
		ID:               fullID,
		ParentID:         parentID,
		CreatedBy:        createdBy,
		CreatedDate:      created,
		LastModifiedBy:   lastModifiedBy,
		LastModifiedDate: lastModified,
		StateToken:       stateToken(lastModified.UnixMilli()),
	}, nil
}

// containerHeaders synthesizes headers for a container resource: the
// interaction model is the most specific LDP container type asserted in
// the RDF, defaulting to a generic RDF source if none of the closed
// container types match.
func containerHeaders(d *Descriptor, m *rdf.Model) (ocfl.Headers, error) {
	h, err := commonHeaders(d.FullID, d.ParentID, m)
	if err != nil {
		return ocfl.Headers{}, err
	}
	model, ok := fedora.ClassifyContainer(m.URIs(fedora.RdfType))
	if !ok {
		model = fedora.RDFSource
	}
	h.InteractionModel = string(model)
	h.ObjectRoot = true
	return h, nil
}

// binaryHeaders synthesizes headers for a binary's content, requiring the
// PREMIS size predicate — the source system throws rather than defaults
// when it is absent, and this implementation preserves that behavior.
func binaryHeaders(d *Descriptor, m *rdf.Model) (ocfl.Headers, error) {
	h, err := commonHeaders(d.FullID, d.ParentID, m)
	if err != nil {
		return ocfl.Headers{}, err
	}
	sizeStr, ok := m.FirstValue(fedora.PredHasSize)
	if !ok {
		return ocfl.Headers{}, &Error{Kind: MissingField, Descriptor: d.FullID,
			Err: fmt.Errorf("missing %s", fedora.PredHasSize)}
	}
	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil {
		return ocfl.Headers{}, &Error{Kind: SourceCorrupt, Descriptor: d.FullID,
			Err: fmt.Errorf("parse %s as integer: %w", fedora.PredHasSize, err)}
	}

	h.InteractionModel = string(fedora.NonRdfSource)
	h.ObjectRoot = true
	h.ContentSize = size
	h.Digests = m.URIs(fedora.PredHasMessageDigest)
	h.Filename, _ = m.FirstValue(fedora.PredFilename)
	h.MimeType, _ = m.FirstValue(fedora.PredHasMimeType)
	return h, nil
}

// binaryDescriptionHeaders synthesizes headers for the RDF description that
// accompanies a binary's content, co-committed in the same OCFL object.
func binaryDescriptionHeaders(d *Descriptor, m *rdf.Model) (ocfl.Headers, error) {
	h, err := commonHeaders(d.FullID+"/fcr:metadata", d.FullID, m)
	if err != nil {
		return ocfl.Headers{}, err
	}
	h.InteractionModel = string(fedora.NonRdfSourceDesc)
	h.ObjectRoot = false
	return h, nil
}

// aclHeaders synthesizes headers for an ACL resource, co-committed inside
// its parent's OCFL object on the parent's first version only.
func aclHeaders(parentFullID string, m *rdf.Model) (ocfl.Headers, error) {
	h, err := commonHeaders(parentFullID+"/fcr:acl", parentFullID, m)
	if err != nil {
		return ocfl.Headers{}, err
	}
	h.InteractionModel = string(fedora.Acl)
	h.ObjectRoot = false
	return h, nil
}
