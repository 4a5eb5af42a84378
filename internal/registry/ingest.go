// Package registry reads product records from the alcohol registry's open
// data feed.
package registry

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/fetcher"
	"github.com/sells-group/beer-registry/internal/model"
)

// DefaultFeedURL is the registry's open data endpoint.
const DefaultFeedURL = "https://alkoreg.agri.ee/avaandmed"

// DefaultProductClass is the registry category for beer.
const DefaultProductClass = "Õlu"

// recordElement is the XML element holding one registry entry.
const recordElement = "product"

// Filter selects which feed records enter the catalog.
type Filter struct {
	// ProductClass keeps only records of this category.
	ProductClass string
	// Since, when non-zero, drops records registered before it.
	Since time.Time
}

// Keep reports whether a record passes the filter.
func (f Filter) Keep(r model.RawRecord) bool {
	if r.ProductClass != f.ProductClass {
		return false
	}
	if !f.Since.IsZero() && r.RegEntryDate.Before(f.Since) {
		return false
	}
	return true
}

// Stats counts what happened to the records of one feed.
type Stats struct {
	Seen    int
	Kept    int
	Renamed int
}

// Ingest streams product elements from r, keeps those passing filter and
// rewrites aliased producer and applicant names. It returns only after the
// whole feed has been read; any read or decode error aborts with no records.
func Ingest(ctx context.Context, r io.Reader, filter Filter, aliases Aliases) ([]model.RawRecord, Stats, error) {
	log := zap.L().With(zap.String("component", "registry.ingest"))

	itemCh, errCh := fetcher.StreamXML[model.RawRecord](ctx, r, recordElement)

	var (
		records []model.RawRecord
		stats   Stats
	)
	for rec := range itemCh {
		stats.Seen++
		if !filter.Keep(rec) {
			continue
		}
		if renamed := applyAliases(&rec, aliases); renamed {
			stats.Renamed++
		}
		records = append(records, rec)
	}

	if err := <-errCh; err != nil {
		return nil, Stats{}, err
	}

	stats.Kept = len(records)
	log.Info("feed ingested",
		zap.Int("seen", stats.Seen),
		zap.Int("kept", stats.Kept),
		zap.Int("renamed", stats.Renamed),
	)
	return records, stats, nil
}

func applyAliases(rec *model.RawRecord, aliases Aliases) bool {
	producer := aliases.Resolve(rec.ProducerName)
	applicant := aliases.Resolve(rec.ApplicantName)
	changed := producer != rec.ProducerName || applicant != rec.ApplicantName
	rec.ProducerName = producer
	rec.ApplicantName = applicant
	return changed
}
