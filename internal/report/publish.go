package report

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/beer-registry/internal/catalog"
	"github.com/sells-group/beer-registry/internal/model"
)

// Artifact formats accepted by Publish.
const (
	FormatJSON = "json"
	FormatHTML = "html"
	FormatXLSX = "xlsx"
)

// File names written into the output directory.
const (
	SnapshotFile = "products.json"
	HTMLFile     = "index.html"
	XLSXFile     = "catalog.xlsx"
)

// Publish writes the requested artifact formats for products into dir and
// returns the paths written. Artifacts are written concurrently; the first
// failure cancels the rest and is returned.
func Publish(ctx context.Context, dir string, products []model.Product, generatedAt time.Time, formats []string) ([]string, error) {
	type job struct {
		path  string
		write func() error
	}

	var jobs []job
	seen := make(map[string]bool, len(formats))
	for _, format := range formats {
		if seen[format] {
			continue
		}
		seen[format] = true

		switch format {
		case FormatJSON:
			path := filepath.Join(dir, SnapshotFile)
			jobs = append(jobs, job{path, func() error { return WriteSnapshot(path, products) }})
		case FormatHTML:
			path := filepath.Join(dir, HTMLFile)
			jobs = append(jobs, job{path, func() error {
				return RenderHTML(path, catalog.GroupByDate(products), generatedAt)
			}})
		case FormatXLSX:
			path := filepath.Join(dir, XLSXFile)
			jobs = append(jobs, job{path, func() error { return WriteXLSX(path, products) }})
		default:
			return nil, eris.Errorf("report: unknown format %q", format)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return j.write()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := make([]string, len(jobs))
	for i, j := range jobs {
		paths[i] = j.path
	}
	zap.L().Info("catalog published",
		zap.String("dir", dir),
		zap.Strings("files", paths),
		zap.Int("products", len(products)),
	)
	return paths, nil
}
