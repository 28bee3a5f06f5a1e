package ocfl

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/config"
)

// digester computes content digests for staged binary payloads, using the
// configured algorithm.
type digester struct {
	algo config.DigestAlgorithm
}

func newDigester(algo config.DigestAlgorithm) *digester {
	return &digester{algo: algo}
}

func (d *digester) newHash() hash.Hash {
	if d.algo == config.SHA256 {
		return sha256.New()
	}
	return sha512.New()
}

// digestFile returns the hex digest of the file at path. Every binary
// payload a migration run touches (a memento's content, or the live
// state's) lives at its own distinct path, so there is no repeated-path
// case worth memoizing here.
func (d *digester) digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := d.newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// digestBytes hashes an in-memory payload directly (used for content staged
// through WriteResource, such as serialized RDF).
func (d *digester) digestBytes(b []byte) string {
	h := d.newHash()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
