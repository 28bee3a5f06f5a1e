package ocfl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Session stages one OCFL object version. At most one Session is open for
// a given object id at a time (enforced by Factory.NewSession), and a
// Session is exclusively owned by the task that opened it until Commit or
// Abort.
type Session struct {
	factory *Factory
	id      string
	dir     string

	inv     *inventory
	created bool // true once the object root/declaration have been written at least once

	versionCreated time.Time
	staged         map[string]Headers // resource id -> headers staged this version
	content        []stagedContent
	closed         bool
}

type stagedContent struct {
	resourceID  string
	sourcePath  string // path to read bytes from, or "" if sourceBytes is set
	sourceBytes []byte
	digest      string
}

// ContainsResource reports whether id has ever been written in a prior,
// committed version of this object, or is already staged in the version
// under construction.
func (s *Session) ContainsResource(id string) bool {
	for _, v := range s.inv.Versions {
		if _, ok := v.Resources[id]; ok {
			return true
		}
	}
	if _, ok := s.staged[id]; ok {
		return true
	}
	return false
}

// SetVersionCreationTimestamp sets the commit timestamp for the version
// currently being staged.
func (s *Session) SetVersionCreationTimestamp(t time.Time) {
	s.versionCreated = t
}

// WriteResource stages headers and an optional content stream for the
// resource headers.ID as part of the version under construction. content
// may be nil for resources with no binary payload (containers, ACLs,
// binary descriptions).
func (s *Session) WriteResource(headers Headers, content io.Reader) error {
	if s.closed {
		return fmt.Errorf("ocfl: session for %s is closed", s.id)
	}
	s.staged[headers.ID] = headers

	if content == nil {
		return nil
	}
	b, err := io.ReadAll(content)
	if err != nil {
		return &CommitError{Err: fmt.Errorf("reading content for %s: %w", headers.ID, err), Dirty: true}
	}
	digest := s.factory.digester.digestBytes(b)
	s.content = append(s.content, stagedContent{resourceID: headers.ID, sourceBytes: b, digest: digest})
	return nil
}

// WriteResourceFile is like WriteResource but streams content directly from
// a file path, avoiding the read-into-memory WriteResource does.
func (s *Session) WriteResourceFile(headers Headers, path string) error {
	if s.closed {
		return fmt.Errorf("ocfl: session for %s is closed", s.id)
	}
	digest, err := s.factory.digester.digestFile(path)
	if err != nil {
		return &CommitError{Err: err, Dirty: true}
	}
	s.staged[headers.ID] = headers
	s.content = append(s.content, stagedContent{resourceID: headers.ID, sourcePath: path, digest: digest})
	return nil
}

// DeleteResource marks a resource as removed in the version under
// construction. It does not remove history:
// the resource's prior versions remain part of the object.
func (s *Session) DeleteResource(id string) error {
	if s.closed {
		return fmt.Errorf("ocfl: session for %s is closed", s.id)
	}
	s.staged[id] = Headers{ID: id, Deleted: true}
	return nil
}

// Commit finalizes the staged version: it writes the NAMASTE object
// declaration (once), the version's content into v{n}/content, and both
// the version-scoped and object-root inventory.json + digest sidecar.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("ocfl: session for %s already closed", s.id)
	}
	defer func() { s.closed = true; s.factory.releaseSession(s.id) }()

	if len(s.staged) == 0 {
		return nil
	}

	v := s.inv.nextVersion()
	versionDir := filepath.Join(s.dir, v.String())
	contentDir := filepath.Join(versionDir, "content")
	if err := os.MkdirAll(contentDir, 0755); err != nil {
		return &CommitError{Err: fmt.Errorf("create version dir: %w", err), Dirty: true}
	}

	if !s.created {
		if err := os.WriteFile(filepath.Join(s.dir, "0=ocfl_object_1.1"), []byte("ocfl_object_1.1\n"), 0644); err != nil {
			return &CommitError{Err: fmt.Errorf("write NAMASTE declaration: %w", err), Dirty: true}
		}
		s.created = true
	}

	var entries []manifestEntry
	for _, sc := range s.content {
		dst := filepath.Join(contentDir, sc.digest)
		if sc.sourcePath != "" {
			if err := copyFile(sc.sourcePath, dst); err != nil {
				return &CommitError{Err: fmt.Errorf("copy content for %s: %w", sc.resourceID, err), Dirty: true}
			}
		} else {
			if err := os.WriteFile(dst, sc.sourceBytes, 0644); err != nil {
				return &CommitError{Err: fmt.Errorf("write content for %s: %w", sc.resourceID, err), Dirty: true}
			}
		}
		entries = append(entries, manifestEntry{Digest: sc.digest, Path: filepath.Join(v.String(), "content", sc.digest)})
	}

	created := s.versionCreated
	if created.IsZero() {
		created = time.Now().UTC()
	}

	ventry := &inventoryVersion{
		Created:   created,
		Message:   "migrated from Fedora 5",
		User:      user{Name: s.factory.fedoraUser, Address: s.factory.fedoraUserAddress},
		Resources: s.staged,
		Content:   entries,
	}
	s.inv.appendVersion(v, ventry)

	if err := writeInventory(s.dir, s.inv); err != nil {
		return &CommitError{Err: err, Dirty: true}
	}
	if err := writeInventory(versionDir, s.inv); err != nil {
		return &CommitError{Err: err, Dirty: true}
	}
	s.factory.recordCommit(s.id, int(v), s.dir)

	s.staged = make(map[string]Headers)
	s.content = nil
	return nil
}

// Abort discards the version under construction without touching
// previously committed versions. It does not delete the object root; per
// Atomicity & rollback, callers that need to remove a
// partially-migrated object call Factory.DeleteObject explicitly.
func (s *Session) Abort() error {
	s.closed = true
	s.staged = make(map[string]Headers)
	s.content = nil
	s.factory.releaseSession(s.id)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
