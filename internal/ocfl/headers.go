package ocfl

import "time"

// Headers is the OCFL resource header synthesized per version write. Once
// submitted to a Session via WriteResource it is immutable.
type Headers struct {
	ID               string
	ParentID         string
	InteractionModel string
	ObjectRoot       bool
	ArchivalGroup    bool
	Deleted          bool

	CreatedBy        string
	CreatedDate      time.Time
	LastModifiedBy   string
	LastModifiedDate time.Time
	StateToken       string

	ContentSize      int64
	Digests          []string
	Filename         string
	MimeType         string

	ExternalURL      string
	ExternalHandling string
}

// ExternalReference describes an externally-hosted binary, parsed from the
// sidecar headers JSON of an `.external` resource.
type ExternalReference struct {
	Location string
	Handling string // "redirect" or "proxy"
}

const (
	HandlingRedirect = "redirect"
	HandlingProxy    = "proxy"
)
