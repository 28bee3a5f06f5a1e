package migrate

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// work is one frame of the ghost-node worklist: a directory to scan and
// the identifier prefix that its concrete children should be appended to.
// idPrefix tracks the path through any ghost directories already passed
// through; the parent identifier (the descriptor's FullID) never changes,
// since ghost descendants are parented to the nearest concrete ancestor,
// not to the ghost itself.
type work struct {
	dir      string
	idPrefix string
}

// children enumerates d's direct concrete descendants, iteratively
// descending through any ghost directories (directories with no sidecar RDF
// file of their own) so a pathologically deep ghost chain never recurses.
// Ghost descendants are returned parented to d, with full identifiers that
// carry the complete path through the ghost chain.
func (m *Migrator) children(d *Descriptor) ([]*Descriptor, error) {
	var result []*Descriptor
	stack := []work{{dir: d.InnerDir, idPrefix: d.FullID}}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(fr.dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, &Error{Kind: Io, Descriptor: d.FullID, Err: err}
		}

		childSet := make(map[string]bool, len(entries))
		var dirs []os.DirEntry

		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, "fcr") {
				continue
			}
			if e.IsDir() {
				dirs = append(dirs, e)
				continue
			}
			if strings.HasSuffix(name, ".headers") {
				continue
			}

			var nameEncoded string
			var newDescriptor func(parentID, fullID, outerDir, nameEncoded string) *Descriptor
			switch {
			case strings.HasSuffix(name, ".binary"):
				nameEncoded = strings.TrimSuffix(name, ".binary")
				newDescriptor = NewBinary
			case strings.HasSuffix(name, ".external"):
				nameEncoded = strings.TrimSuffix(name, ".external")
				newDescriptor = NewExternalBinary
			case strings.HasSuffix(name, "."+m.rdfExt):
				nameEncoded = strings.TrimSuffix(name, "."+m.rdfExt)
				newDescriptor = NewContainer
			default:
				continue
			}

			childSet[nameEncoded] = true
			decoded, err := url.QueryUnescape(nameEncoded)
			if err != nil {
				decoded = nameEncoded
			}
			result = append(result, newDescriptor(d.FullID, fr.idPrefix+"/"+decoded, fr.dir, nameEncoded))
		}

		for _, e := range dirs {
			name := e.Name()
			if childSet[name] {
				continue
			}
			decoded, err := url.QueryUnescape(name)
			if err != nil {
				decoded = name
			}
			stack = append(stack, work{
				dir:      filepath.Join(fr.dir, name),
				idPrefix: fr.idPrefix + "/" + decoded,
			})
		}
	}

	return result, nil
}
