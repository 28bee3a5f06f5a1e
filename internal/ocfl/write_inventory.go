package ocfl

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"os"
	"path/filepath"
)

// writeInventory marshals inv and writes it, plus its digest sidecar
// (inventory.json.sha512 or inventory.json.sha256, per
// inv.DigestAlgorithm), into dir — mirroring the dual inventory write (object root and
// version directory) the reference OCFL implementation performs in
// commitPlan.Run.
func writeInventory(dir string, inv *inventory) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	path := filepath.Join(dir, "inventory.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}

	var h hash.Hash = sha512.New()
	ext := "sha512"
	if inv.DigestAlgorithm == "sha256" {
		h = sha256.New()
		ext = "sha256"
	}
	h.Write(data)
	sidecar := fmt.Sprintf("%s inventory.json\n", hex.EncodeToString(h.Sum(nil)))
	if err := os.WriteFile(path+"."+ext, []byte(sidecar), 0644); err != nil {
		return fmt.Errorf("write inventory sidecar: %w", err)
	}
	return nil
}

func readInventory(dir string) (*inventory, error) {
	data, err := os.ReadFile(filepath.Join(dir, "inventory.json"))
	if err != nil {
		return nil, err
	}
	var inv inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	return &inv, nil
}
