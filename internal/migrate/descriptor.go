package migrate

import "path/filepath"

// Kind distinguishes the three shapes of resource a Descriptor can name.
type Kind int

const (
	KindContainer Kind = iota
	KindBinary
	KindExternalBinary
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindBinary:
		return "binary"
	case KindExternalBinary:
		return "external-binary"
	default:
		return "unknown"
	}
}

// Descriptor names one resource awaiting migration: its identifiers, the
// export directory it was discovered in, and the directory holding its own
// contents. A Descriptor is produced once by a parent and consumed once by
// the task that migrates it.
type Descriptor struct {
	ParentID    string
	FullID      string
	OuterDir    string
	InnerDir    string
	NameEncoded string
	Kind        Kind
}

func newDescriptor(parentID, fullID, outerDir, nameEncoded string, kind Kind) *Descriptor {
	return &Descriptor{
		ParentID:    parentID,
		FullID:      fullID,
		OuterDir:    outerDir,
		InnerDir:    filepath.Join(outerDir, nameEncoded),
		NameEncoded: nameEncoded,
		Kind:        kind,
	}
}

// NewContainer describes an LDP container resource.
func NewContainer(parentID, fullID, outerDir, nameEncoded string) *Descriptor {
	return newDescriptor(parentID, fullID, outerDir, nameEncoded, KindContainer)
}

// NewBinary describes a non-RDF source with a locally-stored payload.
func NewBinary(parentID, fullID, outerDir, nameEncoded string) *Descriptor {
	return newDescriptor(parentID, fullID, outerDir, nameEncoded, KindBinary)
}

// NewExternalBinary describes a non-RDF source whose payload is hosted
// outside the repository (redirect or proxy).
func NewExternalBinary(parentID, fullID, outerDir, nameEncoded string) *Descriptor {
	return newDescriptor(parentID, fullID, outerDir, nameEncoded, KindExternalBinary)
}
