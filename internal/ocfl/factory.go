// Package ocfl is a from-scratch, minimal implementation of the OCFL
// object Session/SessionFactory contract the migration core consumes.
// It is not a general-purpose OCFL reader or validator;
// it implements only enough of the storage model — NAMASTE declaration,
// versioned content directories, dual inventory.json + digest sidecar — to
// satisfy the core's at-most-one-writer-per-object and strictly-ascending
// version ordering invariants, grounded on the shape of
// the reference OCFL-in-Go implementation (commitPlan.Run's declare /
// copy-content / write-inventory sequence).
package ocfl

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/config"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl/index"
	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

// Factory is the SessionFactory consumed by the migration core: it supplies
// newSession(id) and close(), and is shared across every worker in the pool.
type Factory struct {
	rootDir           string
	digestAlgorithm   config.DigestAlgorithm
	fedoraUser        string
	fedoraUserAddress string
	digester          *digester

	mu       sync.Mutex
	inFlight map[string]bool

	index *index.Store // optional; nil disables invariant-tracking writes
}

// FactoryOptions configures a new Factory.
type FactoryOptions struct {
	OutputDir         string
	DigestAlgorithm   config.DigestAlgorithm
	FedoraUser        string
	FedoraUserAddress string
	Index             *index.Store
}

// NewFactory bootstraps a session factory rooted at options.OutputDir. The
// storage root is outputDir/data/ocfl-root.
func NewFactory(opts FactoryOptions) (*Factory, error) {
	root := filepath.Join(opts.OutputDir, "data", "ocfl-root")
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("ocfl: create storage root %s: %w", root, err)
	}
	return &Factory{
		rootDir:           root,
		digestAlgorithm:   opts.DigestAlgorithm,
		fedoraUser:        opts.FedoraUser,
		fedoraUserAddress: opts.FedoraUserAddress,
		digester:          newDigester(opts.DigestAlgorithm),
		inFlight:          make(map[string]bool),
		index:             opts.Index,
	}, nil
}

// NewSession opens or continues a session for id. It returns *CommitError
// (StorageFailed at the call site) if a session for id is already open,
// which should never happen given the scheduler's child-after-parent rule
// but is asserted here rather than silently racing.
func (f *Factory) NewSession(id string) (*Session, error) {
	f.mu.Lock()
	if f.inFlight[id] {
		f.mu.Unlock()
		return nil, &CommitError{Err: fmt.Errorf("ocfl: session for %q already open", id)}
	}
	f.inFlight[id] = true
	f.mu.Unlock()

	dir := f.objectDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		f.releaseSession(id)
		return nil, &CommitError{Err: fmt.Errorf("ocfl: create object root %s: %w", dir, err), Dirty: true}
	}

	inv, existed, err := f.loadOrInit(dir, id)
	if err != nil {
		f.releaseSession(id)
		return nil, &CommitError{Err: err, Dirty: true}
	}

	return &Session{
		factory: f,
		id:      id,
		dir:     dir,
		inv:     inv,
		created: existed,
		staged:  make(map[string]Headers),
	}, nil
}

func (f *Factory) loadOrInit(dir, id string) (*inventory, bool, error) {
	inv, err := readInventory(dir)
	if err == nil {
		return inv, true, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("read inventory for %s: %w", id, err)
	}
	return newInventory(id, string(f.digestAlgorithm)), false, nil
}

func (f *Factory) releaseSession(id string) {
	f.mu.Lock()
	delete(f.inFlight, id)
	f.mu.Unlock()
}

// recordCommit updates the optional object index after a successful
// commit, so an object's latest committed version can be looked up without
// re-reading the storage root from disk.
func (f *Factory) recordCommit(id string, head int, root string) {
	if f.index == nil {
		return
	}
	_ = f.index.RecordCommit(id, head, root)
}

// DeleteObject removes the object root for id, used for per-object
// rollback on failure.
func (f *Factory) DeleteObject(id string) error {
	dir := f.objectDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("ocfl: delete object %s: %w", id, err)
	}
	return nil
}

// Close releases factory-owned resources (the optional object index).
func (f *Factory) Close() error {
	if f.index != nil {
		return f.index.Close()
	}
	return nil
}

// objectDir maps a full identifier to its on-disk object root, stripping
// the internal prefix and percent-encoding each path segment into a
// filesystem-safe form. This is an intentionally simple flat
// layout: real OCFL storage roots usually hash-shard object directories,
// but delegates that choice to the OCFL library and only
// requires that committed content match byte-for-byte, which a flat
// layout satisfies just as well for this module's purposes.
func (f *Factory) objectDir(id string) string {
	rel := strings.TrimPrefix(id, fedora.InternalPrefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return filepath.Join(f.rootDir, "root")
	}
	segments := strings.Split(rel, "/")
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = url.PathEscape(seg)
	}
	return filepath.Join(append([]string{f.rootDir}, encoded...)...)
}
