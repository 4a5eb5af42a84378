package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/beer-registry/internal/model"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<products>
  <product>
    <productName>Porter</productName>
    <producerName>59N Brewing OÜ</producerName>
    <applicantName>Humalasulased OÜ</applicantName>
    <productClass>Õlu</productClass>
    <regEntryDate>2024-01-15</regEntryDate>
    <capacity>0.5</capacity>
  </product>
  <product>
    <productName>Viin</productName>
    <producerName>Liviko AS</producerName>
    <productClass>Viin</productClass>
    <regEntryDate>2024-01-16</regEntryDate>
    <capacity>0.7</capacity>
  </product>
  <product>
    <productName>Old Ale</productName>
    <producerName>Tanker</producerName>
    <productClass>Õlu</productClass>
    <regEntryDate>2023-06-01</regEntryDate>
    <capacity>0.33</capacity>
  </product>
</products>`

func TestIngest_FiltersByClass(t *testing.T) {
	records, stats, err := Ingest(context.Background(), strings.NewReader(feed),
		Filter{ProductClass: "Õlu"}, DefaultAliases())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Porter", records[0].ProductName)
	assert.Equal(t, "Old Ale", records[1].ProductName)
	assert.Equal(t, Stats{Seen: 3, Kept: 2, Renamed: 1}, stats)
}

func TestIngest_FiltersSince(t *testing.T) {
	records, _, err := Ingest(context.Background(), strings.NewReader(feed),
		Filter{ProductClass: "Õlu", Since: model.MustParseDate("2024-01-15").Time}, DefaultAliases())

	require.NoError(t, err)
	require.Len(t, records, 1, "the cutoff date itself is kept")
	assert.Equal(t, "Porter", records[0].ProductName)
}

func TestIngest_AppliesAliases(t *testing.T) {
	records, _, err := Ingest(context.Background(), strings.NewReader(feed),
		Filter{ProductClass: "Õlu"}, DefaultAliases())

	require.NoError(t, err)
	assert.Equal(t, "Tanker", records[0].ProducerName)
	assert.Equal(t, "Pühaste", records[0].ApplicantName)
	assert.Equal(t, "2024-01-15", records[0].RegEntryDate.String())
	assert.Equal(t, "0.5", records[0].Capacity)
}

func TestIngest_InjectedAliases(t *testing.T) {
	records, _, err := Ingest(context.Background(), strings.NewReader(feed),
		Filter{ProductClass: "Õlu"}, NewAliases(map[string]string{"Tanker": "Tanker Brewery"}))

	require.NoError(t, err)
	assert.Equal(t, "59N Brewing OÜ", records[0].ProducerName)
	assert.Equal(t, "Tanker Brewery", records[1].ProducerName)
}

func TestIngest_MalformedFeedAborts(t *testing.T) {
	broken := strings.Replace(feed, "</products>", "", 1) + "<product>"
	records, _, err := Ingest(context.Background(), strings.NewReader(broken),
		Filter{ProductClass: "Õlu"}, DefaultAliases())

	require.Error(t, err)
	assert.Nil(t, records)
}

func TestIngest_BadDateAborts(t *testing.T) {
	bad := strings.Replace(feed, "2024-01-15", "not-a-date", 1)
	_, _, err := Ingest(context.Background(), strings.NewReader(bad),
		Filter{ProductClass: "Õlu"}, DefaultAliases())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized date")
}

func TestFilter_Keep(t *testing.T) {
	f := Filter{ProductClass: "Õlu"}
	assert.True(t, f.Keep(model.RawRecord{ProductClass: "Õlu"}))
	assert.False(t, f.Keep(model.RawRecord{ProductClass: "Siider"}))
}
