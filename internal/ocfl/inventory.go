package ocfl

import (
	"fmt"
	"time"
)

// vnum is an OCFL version number ("v1", "v2", ...), formatted without the
// zero-padding OCFL permits but never requires.
type vnum int

func (v vnum) String() string { return fmt.Sprintf("v%d", int(v)) }

// inventoryVersion is one entry of an inventory's "versions" map: the
// metadata and resource-header snapshot committed at that OCFL version.
// One OCFL object may carry more than one logical resource (a binary plus
// its description, or a container plus its ACL, which is migrated inside
// the same OCFL object as its parent), so Resources is keyed by resource
// id rather than holding a single Headers value.
type inventoryVersion struct {
	Created   time.Time          `json:"created"`
	Message   string             `json:"message"`
	User      user               `json:"user"`
	Resources map[string]Headers `json:"resources"`
	Content   []manifestEntry    `json:"content,omitempty"`
}

type user struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// manifestEntry records one content file committed for a version: its
// digest (content address) and the path relative to the version's content
// directory.
type manifestEntry struct {
	Digest string `json:"digest"`
	Path   string `json:"path"`
}

// inventory is the on-disk record of one OCFL object's full version
// history. It is a deliberately small subset of the real OCFL inventory.json
// shape.
type inventory struct {
	ID              string                     `json:"id"`
	Type            string                     `json:"type"`
	DigestAlgorithm string                     `json:"digestAlgorithm"`
	Head            vnum                       `json:"head"`
	Versions        map[string]*inventoryVersion `json:"versions"`
}

func newInventory(id, digestAlgorithm string) *inventory {
	return &inventory{
		ID:              id,
		Type:            "https://ocfl.io/1.1/spec/#inventory",
		DigestAlgorithm: digestAlgorithm,
		Head:            0,
		Versions:        make(map[string]*inventoryVersion),
	}
}

func (inv *inventory) nextVersion() vnum {
	return inv.Head + 1
}

func (inv *inventory) appendVersion(v vnum, entry *inventoryVersion) {
	inv.Versions[v.String()] = entry
	if v > inv.Head {
		inv.Head = v
	}
}

// versionCount reports how many versions have been committed.
func (inv *inventory) versionCount() int {
	return len(inv.Versions)
}

// headVersion returns the inventoryVersion for the current head, or nil for
// a freshly-constructed, unwritten inventory.
func (inv *inventory) headVersion() *inventoryVersion {
	if inv.Head == 0 {
		return nil
	}
	return inv.Versions[inv.Head.String()]
}
