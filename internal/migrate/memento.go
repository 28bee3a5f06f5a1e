package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// mementoTimestamps enumerates the memento instants recorded for d, sorted
// ascending. It inspects only the versions index directory's file basenames
// (the container's RDF extension or a binary's ".binary" suffix — either
// way, stripping the last extension yields the timestamp), so it applies
// uniformly to both container and binary descriptors.
func (m *Migrator) mementoTimestamps(d *Descriptor) ([]time.Time, error) {
	versionsDir := filepath.Join(d.InnerDir, fcrVersions)
	entries, err := os.ReadDir(versionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &Error{Kind: Io, Descriptor: d.FullID, Err: err}
	}

	seen := make(map[string]bool, len(entries))
	var timestamps []time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".headers") {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if seen[base] {
			continue
		}
		seen[base] = true

		ts, err := time.ParseInLocation(mementoTimeLayout, base, time.UTC)
		if err != nil {
			return nil, &Error{Kind: SourceCorrupt, Descriptor: d.FullID,
				Err: fmt.Errorf("parse memento timestamp %q: %w", base, err)}
		}
		timestamps = append(timestamps, ts)
	}

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })
	return timestamps, nil
}

// mementoRDFPath returns the path to the RDF document for a memento at ts.
// Container mementos live directly in the versions index; binary mementos'
// descriptions live one level deeper, under the binary description's own
// versions index.
func (m *Migrator) mementoRDFPath(d *Descriptor, ts time.Time) string {
	basename := ts.Format(mementoTimeLayout) + "." + m.rdfExt
	if d.Kind == KindBinary {
		return filepath.Join(d.InnerDir, fcrMetadata, fcrVersions, basename)
	}
	return filepath.Join(d.InnerDir, fcrVersions, basename)
}

// mementoBinaryPath returns the path to a binary memento's payload file.
func (m *Migrator) mementoBinaryPath(d *Descriptor, ts time.Time) string {
	return filepath.Join(d.InnerDir, fcrVersions, ts.Format(mementoTimeLayout)+".binary")
}
