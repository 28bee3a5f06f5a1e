package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/rdf"
	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

// externalHeadersSidecar is the JSON shape of an `.external.headers`
// sidecar: an HTTP-header-like map of string to list-of-string.
type externalHeadersSidecar map[string][]string

func parseExternalHeaders(path string) (externalHeadersSidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sidecar externalHeadersSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, err
	}
	return sidecar, nil
}

// migrateExternalBinary writes the single OCFL version for an externally
// hosted binary: headers synthesized from the resource's RDF, with the
// external location and handling resolved from the `.external.headers`
// sidecar, and a nil content stream (the payload is never fetched).
func (m *Migrator) migrateExternalBinary(ctx context.Context, d *Descriptor, sess *ocfl.Session) error {
	rdfPath := filepath.Join(d.OuterDir, d.NameEncoded+"."+m.rdfExt)
	model, err := rdf.ParseFile(rdfPath, m.lang)
	if err != nil {
		return &Error{Kind: SourceCorrupt, Descriptor: d.FullID, Err: err}
	}

	headers, err := commonHeaders(d.FullID, d.ParentID, model)
	if err != nil {
		return err
	}
	headers.InteractionModel = string(fedora.NonRdfSource)
	headers.ObjectRoot = true
	if sizeStr, ok := model.FirstValue(fedora.PredHasSize); ok {
		if size, err := strconv.ParseInt(sizeStr, 10, 64); err == nil {
			headers.ContentSize = size
		}
	}
	headers.Digests = model.URIs(fedora.PredHasMessageDigest)
	headers.Filename, _ = model.FirstValue(fedora.PredFilename)
	headers.MimeType, _ = model.FirstValue(fedora.PredHasMimeType)

	sidecarPath := filepath.Join(d.OuterDir, d.NameEncoded+".external.headers")
	sidecar, err := parseExternalHeaders(sidecarPath)
	if err != nil {
		return &Error{Kind: SourceCorrupt, Descriptor: d.FullID,
			Err: fmt.Errorf("parse external headers sidecar: %w", err)}
	}
	switch {
	case len(sidecar["Location"]) > 0:
		headers.ExternalHandling = ocfl.HandlingRedirect
		headers.ExternalURL = sidecar["Location"][0]
	case len(sidecar["Content-Location"]) > 0:
		headers.ExternalHandling = ocfl.HandlingProxy
		headers.ExternalURL = sidecar["Content-Location"][0]
	default:
		return &Error{Kind: MissingField, Descriptor: d.FullID,
			Err: fmt.Errorf("external headers sidecar missing Content-Location")}
	}

	sess.SetVersionCreationTimestamp(headers.LastModifiedDate)
	if err := sess.WriteResource(headers, nil); err != nil {
		return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
	}
	return nil
}
