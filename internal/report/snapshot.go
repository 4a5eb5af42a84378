// Package report writes the published catalog artifacts: the JSON snapshot,
// the HTML page and the spreadsheet export.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/beer-registry/internal/catalog"
	"github.com/sells-group/beer-registry/internal/model"
)

// WriteSnapshot writes products as a JSON object keyed by registration date.
func WriteSnapshot(path string, products []model.Product) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create snapshot dir")
	}

	data, err := json.Marshal(catalog.GroupMap(products))
	if err != nil {
		return eris.Wrap(err, "report: marshal snapshot")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write snapshot %s", path)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (map[string][]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read snapshot %s", path)
	}
	var groups map[string][]model.Product
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, eris.Wrap(err, "report: unmarshal snapshot")
	}
	return groups, nil
}
