package migrate

// On-disk path fragments of the Fedora 5.x export tree. These are
// percent-encoded literally as Fedora wrote them; "fcr%3A..." is not
// re-encoded at runtime.
const (
	fcrVersions = "fcr%3Aversions"
	fcrMetadata = "fcr%3Ametadata"
	fcrAcl      = "fcr%3Aacl"
)

// mementoTimeLayout is the Go reference-time layout matching the
// yyyyMMddHHmmss basename Fedora uses for memento files, always UTC.
const mementoTimeLayout = "20060102150405"
