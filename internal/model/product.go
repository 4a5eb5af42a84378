// Package model defines the catalog data types shared across the pipeline.
package model

import "time"

// RawRecord is one <product> entry of the registry feed, as published.
type RawRecord struct {
	ProductName   string `xml:"productName" json:"productName"`
	ProducerName  string `xml:"producerName" json:"producerName"`
	ApplicantName string `xml:"applicantName" json:"applicantName,omitempty"`
	ProductClass  string `xml:"productClass" json:"productClass"`
	RegEntryDate  Date   `xml:"regEntryDate" json:"regEntryDate"`
	Capacity      string `xml:"capacity" json:"capacity"`
}

// Product is a deduplicated catalog entry. Package-size variants of the same
// product registered close together are merged into one Product whose
// Capacities hold every variant's size.
type Product struct {
	ProductName   string         `json:"productName"`
	ProducerName  string         `json:"producerName"`
	ApplicantName string         `json:"applicantName,omitempty"`
	ProductClass  string         `json:"productClass"`
	RegEntryDate  Date           `json:"regEntryDate"`
	Identity      string         `json:"uid"`
	Capacities    []string       `json:"capacity"`
	ExternalMatch *ExternalMatch `json:"rb,omitempty"`
}

// Enriched reports whether the product carries external metadata.
func (p Product) Enriched() bool {
	return p.ExternalMatch != nil
}

// ExternalMatch holds best-effort metadata found for a product in an
// external beer database. Fields beyond Source and Query depend on what the
// service returned.
type ExternalMatch struct {
	Source      string  `json:"source"`
	Query       string  `json:"query"`
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Brewer      string  `json:"brewer,omitempty"`
	Style       string  `json:"style,omitempty"`
	ABV         float64 `json:"abv,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	RatingCount int     `json:"ratingCount,omitempty"`
	URL         string  `json:"url,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// DateGroup is the set of products registered on one date.
type DateGroup struct {
	Date     string    `json:"date"`
	Products []Product `json:"products"`
}

// CachedLookup is a stored outcome of one external lookup query. A nil
// Match records a miss.
type CachedLookup struct {
	Query     string         `json:"query"`
	Match     *ExternalMatch `json:"match,omitempty"`
	CachedAt  time.Time      `json:"cached_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}
