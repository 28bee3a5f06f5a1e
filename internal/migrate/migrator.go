// Package migrate implements the F5→F6 resource migrator: the central
// algorithm that walks one resource descriptor, reconstructs its memento
// history, synthesizes OCFL headers, commits OCFL versions, and enumerates
// the descriptor's children for further migration.
package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/config"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/rdf"
	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

// sessionFactory is the narrow slice of *ocfl.Factory the migrator needs,
// named so tests could substitute a fake if the need ever arises.
type sessionFactory interface {
	NewSession(id string) (*ocfl.Session, error)
	DeleteObject(id string) error
	Close() error
}

// Migrator runs the resource migration algorithm against one descriptor at
// a time. It is safe for concurrent use by multiple tasks: all per-object
// state lives in the OCFL session factory, which itself serializes access
// per object id.
type Migrator struct {
	factory sessionFactory
	rdfExt  string
	lang    rdf.Lang
	baseURI string
	logger  *slog.Logger
}

// NewMigrator builds a Migrator from configuration and a session factory.
func NewMigrator(cfg *config.Config, factory *ocfl.Factory, logger *slog.Logger) *Migrator {
	lang := rdf.Turtle
	if cfg.SrcRDFLang == "ntriples" {
		lang = rdf.NTriples
	}
	return &Migrator{
		factory: factory,
		rdfExt:  cfg.RDFExt,
		lang:    lang,
		baseURI: cfg.BaseURI,
		logger:  logger,
	}
}

// serializeRDF translates model's identifiers from the configured base URI
// to the internal prefix, drops server-managed triples, and encodes the
// result as N-Triples: the byte stream committed as a resource's OCFL
// content.
func (m *Migrator) serializeRDF(d *Descriptor, model *rdf.Model) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if _, err := rdf.WriteTranslateIds(&buf, model, rdf.NTriples, m.baseURI, fedora.InternalPrefix); err != nil {
		return nil, &Error{Kind: SourceCorrupt, Descriptor: d.FullID, Err: err}
	}
	return &buf, nil
}

// Migrate runs the full algorithm against d and returns its children for
// further scheduling. A failure during migration triggers rollback of any
// partially-committed object for d.FullID, per the kind's Rollback policy.
func (m *Migrator) Migrate(ctx context.Context, d *Descriptor) ([]*Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: Cancelled, Descriptor: d.FullID, Err: err}
	}

	m.logger.Info("migrating resource", "id", d.FullID, "kind", d.Kind.String())

	var err error
	switch d.Kind {
	case KindExternalBinary:
		err = m.migrateExternalResource(ctx, d)
	case KindContainer, KindBinary:
		err = m.migrateVersioned(ctx, d)
	default:
		err = &Error{Kind: UnsupportedResource, Descriptor: d.FullID, Err: fmt.Errorf("unsupported kind %v", d.Kind)}
	}

	if err != nil {
		var migErr *Error
		if errors.As(err, &migErr) && migErr.Kind.Rollback() {
			if delErr := m.factory.DeleteObject(d.FullID); delErr != nil {
				m.logger.Error("failed to roll back object after migration error", "id", d.FullID, "err", delErr)
			}
		}
		m.logger.Error("failed to process resource", "descriptor", d.FullID, "err", err)
		return nil, err
	}

	children, err := m.children(d)
	if err != nil {
		return nil, err
	}

	m.logger.Info("resource upgraded", "id", d.FullID)
	return children, nil
}

// Close releases the migrator's OCFL session factory, including any
// optional commit index. It is called once, by the task manager, on
// shutdown.
func (m *Migrator) Close() error {
	return m.factory.Close()
}

func (m *Migrator) migrateExternalResource(ctx context.Context, d *Descriptor) error {
	sess, err := m.factory.NewSession(d.FullID)
	if err != nil {
		return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
	}
	if err := m.migrateExternalBinary(ctx, d, sess); err != nil {
		_ = sess.Abort()
		return err
	}
	if err := sess.Commit(ctx); err != nil {
		return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
	}
	return nil
}

// migrateVersioned runs Steps 1-3 of the algorithm for container and binary
// descriptors: one OCFL version per memento, in ascending timestamp order,
// followed by an additional version for live state if it has diverged.
func (m *Migrator) migrateVersioned(ctx context.Context, d *Descriptor) error {
	timestamps, err := m.mementoTimestamps(d)
	if err != nil {
		return err
	}

	var lastMementoModified time.Time

	for _, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return &Error{Kind: Cancelled, Descriptor: d.FullID, Err: err}
		}

		model, err := rdf.ParseFile(m.mementoRDFPath(d, ts), m.lang)
		if err != nil {
			return &Error{Kind: SourceCorrupt, Descriptor: d.FullID, Err: err}
		}

		sess, err := m.factory.NewSession(d.FullID)
		if err != nil {
			return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
		}
		sess.SetVersionCreationTimestamp(ts)

		lastMementoModified, err = m.writeResourceVersion(d, model, sess, m.mementoBinaryPath(d, ts))
		if err != nil {
			_ = sess.Abort()
			return err
		}

		if err := m.writeACLIfPresent(d, sess); err != nil {
			_ = sess.Abort()
			return err
		}

		if err := sess.Commit(ctx); err != nil {
			return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
		}
	}

	return m.migrateLiveState(ctx, d, len(timestamps), lastMementoModified)
}

// writeResourceVersion stages headers (and content, for binaries) for one
// version under construction, returning the lastModifiedDate synthesized
// so the caller can compare it against the live state's.
func (m *Migrator) writeResourceVersion(d *Descriptor, model *rdf.Model, sess *ocfl.Session, binaryPath string) (time.Time, error) {
	switch d.Kind {
	case KindContainer:
		headers, err := containerHeaders(d, model)
		if err != nil {
			return time.Time{}, err
		}
		body, err := m.serializeRDF(d, model)
		if err != nil {
			return time.Time{}, err
		}
		if err := sess.WriteResource(headers, body); err != nil {
			return time.Time{}, &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
		}
		return headers.LastModifiedDate, nil

	case KindBinary:
		headers, err := binaryHeaders(d, model)
		if err != nil {
			return time.Time{}, err
		}
		if err := sess.WriteResourceFile(headers, binaryPath); err != nil {
			return time.Time{}, &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
		}
		m.logger.Debug("staged binary content", "id", d.FullID, "size", humanize.Bytes(uint64(headers.ContentSize)))

		descHeaders, err := binaryDescriptionHeaders(d, model)
		if err != nil {
			return time.Time{}, err
		}
		descBody, err := m.serializeRDF(d, model)
		if err != nil {
			return time.Time{}, err
		}
		if err := sess.WriteResource(descHeaders, descBody); err != nil {
			return time.Time{}, &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
		}
		return headers.LastModifiedDate, nil

	default:
		return time.Time{}, &Error{Kind: UnsupportedResource, Descriptor: d.FullID, Err: fmt.Errorf("kind %v has no version content", d.Kind)}
	}
}

// writeACLIfPresent stages d's ACL as a sub-resource, but only on the
// version that first introduces it: it queries sess for prior committed
// or already-staged state rather than trusting a positional "first
// memento" assumption, so it is safe to call from every version in the
// loop.
func (m *Migrator) writeACLIfPresent(d *Descriptor, sess *ocfl.Session) error {
	headers, model, exists, err := m.detectACL(d)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if sess.ContainsResource(headers.ID) {
		return nil
	}
	body, err := m.serializeRDF(d, model)
	if err != nil {
		return err
	}
	if err := sess.WriteResource(headers, body); err != nil {
		return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
	}
	return nil
}

// migrateLiveState implements Step 3: an additional OCFL version is
// committed only if the live state's lastModifiedDate differs from the
// most recent memento's (or unconditionally, if there were no mementos).
func (m *Migrator) migrateLiveState(ctx context.Context, d *Descriptor, mementoCount int, lastMementoModified time.Time) error {
	rdfPath := m.liveRDFPath(d)
	model, err := rdf.ParseFile(rdfPath, m.lang)
	if err != nil {
		return &Error{Kind: SourceCorrupt, Descriptor: d.FullID, Err: err}
	}

	currentUpdate, ok := model.DateValue(fedora.PredLastModified)
	if !ok {
		return &Error{Kind: MissingField, Descriptor: d.FullID, Err: fmt.Errorf("live state missing lastModified")}
	}
	if mementoCount > 0 && currentUpdate.Equal(lastMementoModified) {
		return nil
	}

	sess, err := m.factory.NewSession(d.FullID)
	if err != nil {
		return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
	}
	sess.SetVersionCreationTimestamp(currentUpdate)

	liveBinaryPath := filepath.Join(d.OuterDir, d.NameEncoded+".binary")
	if _, err := m.writeResourceVersion(d, model, sess, liveBinaryPath); err != nil {
		_ = sess.Abort()
		return err
	}

	if err := m.writeACLIfPresent(d, sess); err != nil {
		_ = sess.Abort()
		return err
	}

	if err := sess.Commit(ctx); err != nil {
		return &Error{Kind: StorageFailed, Descriptor: d.FullID, Err: err}
	}
	return nil
}

// liveRDFPath returns the path to a descriptor's non-versioned RDF:
// container live state lives alongside its siblings in the outer
// directory; a binary's live description lives inside its own inner
// directory.
func (m *Migrator) liveRDFPath(d *Descriptor) string {
	if d.Kind == KindBinary {
		return filepath.Join(d.InnerDir, fcrMetadata+"."+m.rdfExt)
	}
	return filepath.Join(d.OuterDir, d.NameEncoded+"."+m.rdfExt)
}
