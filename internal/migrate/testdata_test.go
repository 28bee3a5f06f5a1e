package migrate

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/config"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl"
	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

func newTestMigrator(t *testing.T, factory *ocfl.Factory) *Migrator {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURI = "http://example.org/rest/"
	return NewMigrator(cfg, factory, discardLogger())
}

// newTestFactory returns a session factory rooted at a fresh temp
// directory, along with that directory so tests can locate the committed
// storage root on disk.
func newTestFactory(t *testing.T) (*ocfl.Factory, string) {
	t.Helper()
	outputDir := t.TempDir()
	f, err := ocfl.NewFactory(ocfl.FactoryOptions{
		OutputDir:         outputDir,
		DigestAlgorithm:   config.SHA256,
		FedoraUser:        "fedoraAdmin",
		FedoraUserAddress: "info:fedora/fedoraAdmin",
	})
	if err != nil {
		t.Fatalf("newTestFactory: NewFactory failed: %v", err)
	}
	return f, outputDir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// writeFile writes content to dir/name, creating parent directories first.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("writeFile: mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	return path
}

// containerRDF returns a minimal basic-container Turtle document with the
// given lastModified instant.
func containerRDF(lastModified string) string {
	return `@prefix fedora: <http://fedora.info/definitions/v4/repository#> .
@prefix ldp: <http://www.w3.org/ns/ldp#> .
@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix dc: <http://purl.org/dc/terms/> .

<http://example.org/rest/obj1> rdf:type ldp:BasicContainer ;
  dc:title "hello" ;
  fedora:createdBy "fedoraAdmin" ;
  fedora:created "2020-10-15T05:30:00Z" ;
  fedora:lastModifiedBy "fedoraAdmin" ;
  fedora:lastModified "` + lastModified + `" .
`
}

// writeExternalHeaders writes a `.external.headers` sidecar for the
// external binary nameEncoded, recording either a Location (redirect) or a
// Content-Location (proxy) header.
func writeExternalHeaders(t *testing.T, outerDir, nameEncoded, header, value string) {
	t.Helper()
	sidecar := map[string][]string{header: {value}}
	data, err := json.Marshal(sidecar)
	if err != nil {
		t.Fatalf("writeExternalHeaders: marshal: %v", err)
	}
	writeFile(t, outerDir, nameEncoded+".external.headers", string(data))
}

// objectDir reproduces the storage root's flat object-directory layout so
// tests can locate a committed object without reaching into the ocfl
// package's unexported internals.
func objectDir(outputDir, id string) string {
	rel := strings.TrimPrefix(id, fedora.InternalPrefix)
	rel = strings.TrimPrefix(rel, "/")
	root := filepath.Join(outputDir, "data", "ocfl-root")
	if rel == "" {
		return filepath.Join(root, "root")
	}
	segments := strings.Split(rel, "/")
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = url.PathEscape(seg)
	}
	return filepath.Join(append([]string{root}, encoded...)...)
}

// testInventoryVersion is the subset of a committed version's shape this
// package's tests need to inspect.
type testInventoryVersion struct {
	Created   time.Time                  `json:"created"`
	Resources map[string]json.RawMessage `json:"resources"`
}

type testInventory struct {
	Head     int                             `json:"head"`
	Versions map[string]testInventoryVersion `json:"versions"`
}

// readInventory reads and decodes the committed inventory.json for id's
// object root.
func readInventory(t *testing.T, outputDir, id string) testInventory {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(objectDir(outputDir, id), "inventory.json"))
	if err != nil {
		t.Fatalf("readInventory(%s): %v", id, err)
	}
	var inv testInventory
	if err := json.Unmarshal(data, &inv); err != nil {
		t.Fatalf("readInventory(%s): unmarshal: %v", id, err)
	}
	return inv
}

// resourceHeaders decodes one resource's staged headers from a version
// entry's Resources map, for assertions on fields readInventory's shallow
// shape doesn't expose directly.
func resourceHeaders(t *testing.T, v testInventoryVersion, id string) map[string]any {
	t.Helper()
	raw, ok := v.Resources[id]
	if !ok {
		t.Fatalf("resourceHeaders: version has no resource %q", id)
	}
	var h map[string]any
	if err := json.Unmarshal(raw, &h); err != nil {
		t.Fatalf("resourceHeaders: unmarshal %q: %v", id, err)
	}
	return h
}

// binaryRDF returns a minimal non-RDF-source description Turtle document.
func binaryRDF(lastModified string, size int) string {
	return `@prefix fedora: <http://fedora.info/definitions/v4/repository#> .
@prefix premis: <http://www.loc.gov/premis/rdf/v1#> .
@prefix ebucore: <http://www.ebu.ch/metadata/ontologies/ebucore/ebucore#> .

<http://example.org/rest/bin1> fedora:createdBy "fedoraAdmin" ;
  fedora:created "2020-10-15T05:30:00Z" ;
  fedora:lastModifiedBy "fedoraAdmin" ;
  fedora:lastModified "` + lastModified + `" ;
  premis:hasSize "` + strconv.Itoa(size) + `" ;
  ebucore:filename "file.bin" ;
  ebucore:hasMimeType "application/octet-stream" .
`
}
