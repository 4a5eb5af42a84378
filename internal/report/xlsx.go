package report

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/beer-registry/internal/model"
)

// SheetName is the worksheet holding the catalog.
const SheetName = "Catalog"

var xlsxHeader = []string{
	"Registered", "Product", "Producer", "Applicant", "Capacity",
	"RateBeer name", "Style", "ABV", "Rating", "Ratings", "URL",
}

// WriteXLSX writes one spreadsheet row per product, in catalog order.
func WriteXLSX(path string, products []model.Product) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.RegEntryDate.String())
		row.AddCell().SetString(p.ProductName)
		row.AddCell().SetString(p.ProducerName)
		row.AddCell().SetString(p.ApplicantName)
		row.AddCell().SetString(strings.Join(p.Capacities, ", "))

		m := p.ExternalMatch
		if m == nil {
			continue
		}
		row.AddCell().SetString(m.Name)
		row.AddCell().SetString(m.Style)
		row.AddCell().SetFloat(m.ABV)
		row.AddCell().SetFloat(m.Rating)
		row.AddCell().SetInt(m.RatingCount)
		row.AddCell().SetString(m.URL)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create xlsx dir")
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save xlsx %s", path)
	}
	return nil
}
