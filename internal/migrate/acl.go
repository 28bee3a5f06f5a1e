package migrate

import (
	"os"
	"path/filepath"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/rdf"
)

// detectACL reports whether d has an attached ACL and, if so, its
// synthesized headers and parsed RDF model. An ACL is migrated as a
// sub-resource of its parent, co-committed on the parent's first version
// only.
func (m *Migrator) detectACL(d *Descriptor) (ocfl.Headers, *rdf.Model, bool, error) {
	path := filepath.Join(d.InnerDir, fcrAcl+"."+m.rdfExt)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ocfl.Headers{}, nil, false, nil
		}
		return ocfl.Headers{}, nil, false, &Error{Kind: Io, Descriptor: d.FullID, Err: err}
	}

	model, err := rdf.ParseFile(path, m.lang)
	if err != nil {
		return ocfl.Headers{}, nil, false, &Error{Kind: SourceCorrupt, Descriptor: d.FullID, Err: err}
	}
	headers, err := aclHeaders(d.FullID, model)
	if err != nil {
		return ocfl.Headers{}, nil, false, err
	}
	return headers, model, true, nil
}
