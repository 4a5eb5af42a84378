package report

import (
	"bytes"
	"embed"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/beer-registry/internal/model"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("index.html.tmpl").
		Funcs(template.FuncMap{
			"join": strings.Join,
			"number": func(v float64) string {
				return strconv.FormatFloat(v, 'f', -1, 64)
			},
		}).
		ParseFS(templateFS, "templates/index.html.tmpl"),
)

type pageData struct {
	Groups      []model.DateGroup
	Total       int
	GeneratedAt string
}

// RenderHTML renders the catalog page for groups into path.
func RenderHTML(path string, groups []model.DateGroup, generatedAt time.Time) error {
	total := 0
	for _, g := range groups {
		total += len(g.Products)
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Groups:      groups,
		Total:       total,
		GeneratedAt: generatedAt.UTC().Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return eris.Wrap(err, "report: render html")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create html dir")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "report: write html %s", path)
	}
	return nil
}
