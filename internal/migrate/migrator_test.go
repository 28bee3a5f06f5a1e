package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl"
	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

func TestMigrateSimpleBinaryNoHistory(t *testing.T) {
	root := t.TempDir()
	content := "hello world"
	writeFile(t, root, "bin1.binary", content)
	writeFile(t, root, filepath.Join("bin1", "fcr%3Ametadata.ttl"), binaryRDF("2021-01-01T00:00:00Z", len(content)))

	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)
	d := NewBinary("", "info:fedora/bin1", root, "bin1")

	children, err := m.Migrate(context.Background(), d)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if len(children) != 0 {
		t.Fatalf("expected no children for a leaf binary, got %d", len(children))
	}

	inv := readInventory(t, outputDir, "info:fedora/bin1")
	if inv.Head != 1 || len(inv.Versions) != 1 {
		t.Fatalf("expected exactly one committed version, got head=%d versions=%d", inv.Head, len(inv.Versions))
	}

	v1 := inv.Versions["v1"]
	contentHeaders := resourceHeaders(t, v1, "info:fedora/bin1")
	if contentHeaders["InteractionModel"] != string(fedora.NonRdfSource) {
		t.Errorf("content interaction model = %v, want %s", contentHeaders["InteractionModel"], fedora.NonRdfSource)
	}
	if got := contentHeaders["ContentSize"].(float64); got != float64(len(content)) {
		t.Errorf("content size = %v, want %d", got, len(content))
	}

	descHeaders := resourceHeaders(t, v1, "info:fedora/bin1/fcr:metadata")
	if descHeaders["InteractionModel"] != string(fedora.NonRdfSourceDesc) {
		t.Errorf("description interaction model = %v, want %s", descHeaders["InteractionModel"], fedora.NonRdfSourceDesc)
	}
}

func TestMigrateContainerChildrenAndGhostReparenting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "obj1.ttl", containerRDF("2021-01-01T00:00:00Z"))
	writeFile(t, root, filepath.Join("obj1", "child1.ttl"), containerRDF("2021-01-01T00:00:00Z"))
	// "ghost" has no obj1/ghost.ttl sidecar of its own: it is a ghost node
	// whose concrete descendant reparents to obj1 directly.
	writeFile(t, root, filepath.Join("obj1", "ghost", "grandchild.ttl"), containerRDF("2021-01-01T00:00:00Z"))

	factory, _ := newTestFactory(t)
	m := newTestMigrator(t, factory)
	d := NewContainer("", "info:fedora/obj1", root, "obj1")

	children, err := m.Migrate(context.Background(), d)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d: %+v", len(children), children)
	}

	byID := make(map[string]*Descriptor, len(children))
	for _, c := range children {
		byID[c.FullID] = c
	}

	child1, ok := byID["info:fedora/obj1/child1"]
	if !ok {
		t.Fatalf("missing child1 among children: %v", byID)
	}
	if child1.ParentID != "info:fedora/obj1" || child1.Kind != KindContainer {
		t.Errorf("child1 = %+v, want parent info:fedora/obj1, kind container", child1)
	}

	grandchild, ok := byID["info:fedora/obj1/ghost/grandchild"]
	if !ok {
		t.Fatalf("missing ghost-reparented grandchild among children: %v", byID)
	}
	if grandchild.ParentID != "info:fedora/obj1" {
		t.Errorf("ghost descendant should reparent to the nearest concrete ancestor, got parent %q", grandchild.ParentID)
	}
}

func TestMigrateContainerWithMementosAndDivergingLiveState(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, filepath.Join("obj2", "fcr%3Aversions", "20200101000000.ttl"), containerRDF("2020-01-01T00:00:00Z"))
	writeFile(t, root, filepath.Join("obj2", "fcr%3Aversions", "20200601000000.ttl"), containerRDF("2020-06-01T00:00:00Z"))
	writeFile(t, root, "obj2.ttl", containerRDF("2021-01-01T00:00:00Z"))

	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)
	d := NewContainer("", "info:fedora/obj2", root, "obj2")

	if _, err := m.Migrate(context.Background(), d); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	inv := readInventory(t, outputDir, "info:fedora/obj2")
	if len(inv.Versions) != 3 {
		t.Fatalf("expected 2 mementos + 1 diverging live version, got %d", len(inv.Versions))
	}

	v1, v2, v3 := inv.Versions["v1"], inv.Versions["v2"], inv.Versions["v3"]
	if !v1.Created.Before(v2.Created) || !v2.Created.Before(v3.Created) {
		t.Errorf("expected strictly ascending version timestamps, got v1=%v v2=%v v3=%v", v1.Created, v2.Created, v3.Created)
	}
}

func TestMigrateContainerLiveStateMatchingLastMementoIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, filepath.Join("obj3", "fcr%3Aversions", "20200101000000.ttl"), containerRDF("2020-01-01T00:00:00Z"))
	writeFile(t, root, "obj3.ttl", containerRDF("2020-01-01T00:00:00Z"))

	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)
	d := NewContainer("", "info:fedora/obj3", root, "obj3")

	if _, err := m.Migrate(context.Background(), d); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	inv := readInventory(t, outputDir, "info:fedora/obj3")
	if len(inv.Versions) != 1 {
		t.Fatalf("expected live state identical to the last memento to be skipped, got %d versions", len(inv.Versions))
	}
}

func TestMigrateContainerCommitsACLOnFirstVersion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "obj4.ttl", containerRDF("2021-01-01T00:00:00Z"))
	writeFile(t, root, filepath.Join("obj4", "fcr%3Aacl.ttl"), containerRDF("2021-01-01T00:00:00Z"))

	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)
	d := NewContainer("", "info:fedora/obj4", root, "obj4")

	if _, err := m.Migrate(context.Background(), d); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	inv := readInventory(t, outputDir, "info:fedora/obj4")
	v1 := inv.Versions["v1"]
	if _, ok := v1.Resources["info:fedora/obj4/fcr:acl"]; !ok {
		t.Errorf("expected the ACL to be co-committed in the first version")
	}
}

func TestMigrateExternalBinaryRedirectAndProxy(t *testing.T) {
	root := t.TempDir()
	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)

	writeFile(t, root, "ext1.ttl", binaryRDF("2021-01-01T00:00:00Z", 42))
	writeExternalHeaders(t, root, "ext1", "Location", "http://example.org/file1.bin")
	redirect := NewExternalBinary("", "info:fedora/ext1", root, "ext1")
	if _, err := m.Migrate(context.Background(), redirect); err != nil {
		t.Fatalf("Migrate (redirect) failed: %v", err)
	}
	h1 := resourceHeaders(t, readInventory(t, outputDir, "info:fedora/ext1").Versions["v1"], "info:fedora/ext1")
	if h1["ExternalHandling"] != ocfl.HandlingRedirect || h1["ExternalURL"] != "http://example.org/file1.bin" {
		t.Errorf("redirect headers = %+v", h1)
	}

	writeFile(t, root, "ext2.ttl", binaryRDF("2021-01-01T00:00:00Z", 42))
	writeExternalHeaders(t, root, "ext2", "Content-Location", "http://example.org/file2.bin")
	proxied := NewExternalBinary("", "info:fedora/ext2", root, "ext2")
	if _, err := m.Migrate(context.Background(), proxied); err != nil {
		t.Fatalf("Migrate (proxy) failed: %v", err)
	}
	h2 := resourceHeaders(t, readInventory(t, outputDir, "info:fedora/ext2").Versions["v1"], "info:fedora/ext2")
	if h2["ExternalHandling"] != ocfl.HandlingProxy || h2["ExternalURL"] != "http://example.org/file2.bin" {
		t.Errorf("proxy headers = %+v", h2)
	}
}

func TestMigrateBinaryMissingSizeRollsBackObject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bin2.binary", "payload")
	brokenRDF := `@prefix fedora: <http://fedora.info/definitions/v4/repository#> .

<http://example.org/rest/bin2> fedora:createdBy "fedoraAdmin" ;
  fedora:created "2020-10-15T05:30:00Z" ;
  fedora:lastModifiedBy "fedoraAdmin" ;
  fedora:lastModified "2020-10-15T05:30:00Z" .
`
	writeFile(t, root, filepath.Join("bin2", "fcr%3Ametadata.ttl"), brokenRDF)

	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)
	d := NewBinary("", "info:fedora/bin2", root, "bin2")

	_, err := m.Migrate(context.Background(), d)
	if err == nil {
		t.Fatal("expected Migrate to fail for a binary missing premis:hasSize")
	}
	var migErr *Error
	if !errors.As(err, &migErr) || migErr.Kind != MissingField {
		t.Fatalf("expected a MissingField error, got %v", err)
	}

	if _, statErr := os.Stat(objectDir(outputDir, "info:fedora/bin2")); !os.IsNotExist(statErr) {
		t.Errorf("expected the partially-migrated object root to be rolled back, stat err = %v", statErr)
	}
}

func TestMigrateUnsupportedKindNeverCreatesAnObject(t *testing.T) {
	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)
	d := &Descriptor{FullID: "info:fedora/weird", OuterDir: t.TempDir(), InnerDir: t.TempDir(), NameEncoded: "weird", Kind: Kind(99)}

	_, err := m.Migrate(context.Background(), d)
	if err == nil {
		t.Fatal("expected an error for an unrecognized resource kind")
	}
	var migErr *Error
	if !errors.As(err, &migErr) || migErr.Kind != UnsupportedResource {
		t.Fatalf("expected UnsupportedResource, got %v", err)
	}

	if _, statErr := os.Stat(objectDir(outputDir, "info:fedora/weird")); !os.IsNotExist(statErr) {
		t.Errorf("an unsupported resource should never reach object creation, stat err = %v", statErr)
	}
}

func TestStateTokenIsDeterministicAcrossObjects(t *testing.T) {
	root1, root2 := t.TempDir(), t.TempDir()
	lastModified := "2022-03-04T12:00:00Z"
	writeFile(t, root1, "a.ttl", containerRDF(lastModified))
	writeFile(t, root2, "b.ttl", containerRDF(lastModified))

	factory, outputDir := newTestFactory(t)
	m := newTestMigrator(t, factory)

	if _, err := m.Migrate(context.Background(), NewContainer("", "info:fedora/a", root1, "a")); err != nil {
		t.Fatalf("Migrate(a) failed: %v", err)
	}
	if _, err := m.Migrate(context.Background(), NewContainer("", "info:fedora/b", root2, "b")); err != nil {
		t.Fatalf("Migrate(b) failed: %v", err)
	}

	ha := resourceHeaders(t, readInventory(t, outputDir, "info:fedora/a").Versions["v1"], "info:fedora/a")
	hb := resourceHeaders(t, readInventory(t, outputDir, "info:fedora/b").Versions["v1"], "info:fedora/b")
	if ha["StateToken"] == "" {
		t.Fatal("stateToken should not be empty")
	}
	if ha["StateToken"] != hb["StateToken"] {
		t.Errorf("identical lastModified instants should produce identical stateTokens, got %v vs %v", ha["StateToken"], hb["StateToken"])
	}
}
