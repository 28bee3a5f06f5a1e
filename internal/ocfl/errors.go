package ocfl

// CommitError wraps a failure from a Session write or commit, mirroring the
// reference OCFL implementation's CommitError (Err, Unwrap). Dirty marks
// that the object root may have partial content on disk and should be
// deleted by the caller before any retry.
type CommitError struct {
	Err   error
	Dirty bool
}

func (c *CommitError) Error() string { return c.Err.Error() }
func (c *CommitError) Unwrap() error { return c.Err }
