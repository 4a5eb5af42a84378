// Package catalog turns raw registry records into an ordered, deduplicated
// product catalog.
package catalog

import "encoding/base64"

// Identity derives the grouping key for a product from its name and producer.
// The two strings are concatenated (name first) and base64 encoded, so equal
// inputs always produce equal keys across runs.
func Identity(name, producer string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(name + producer))
}
