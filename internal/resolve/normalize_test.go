package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeerTokens_StripsCategoryPrefix(t *testing.T) {
	assert.Equal(t, []string{"pühaste", "mprimus"}, BeerTokens("Õlu Pühaste Mprimus"))
	assert.Equal(t, []string{"ipa"}, BeerTokens("Beer IPA"))
}

func TestBeerTokens_ContainerAndArticles(t *testing.T) {
	assert.Equal(t, []string{"porter"}, BeerTokens("KeyKeg Porter"))
	assert.Equal(t, []string{"porter"}, BeerTokens("Keg Porter"))
	assert.Equal(t, []string{"bitter"}, BeerTokens("Cask Bitter"))
	assert.Equal(t, []string{"pale", "ale"}, BeerTokens("The Pale Ale"))
}

func TestBeerTokens_PrefixOnly(t *testing.T) {
	// Only the start of a token is stripped, never a substring.
	assert.Equal(t, []string{"mastodon", "black"}, BeerTokens("Mastodon Black"))
	// A noise prefix glued to a real word still loses the prefix.
	assert.Equal(t, []string{"luxe", "ory"}, BeerTokens("Deluxe Theory"))
}

func TestBeerTokens_DropsBreweryToken(t *testing.T) {
	assert.Equal(t, []string{"põhjala", "öö"}, BeerTokens("Põhjala Brewery Öö"))
}

func TestBeerTokens_PunctuationAndPeriods(t *testing.T) {
	assert.Equal(t, []string{"st.", "bernardus", "abt"}, BeerTokens("St.Bernardus Abt"))
	assert.Equal(t, []string{"bobs", "porter"}, BeerTokens(`Bob's "Porter"`))
	assert.Equal(t, []string{"imperial", "stout", "bourbon"}, BeerTokens("Imperial Stout (Bourbon)"))
	assert.Equal(t, []string{"mosaic"}, BeerTokens("`Mosaic`"))
}

func TestBeerTokens_Empty(t *testing.T) {
	assert.Empty(t, BeerTokens(""))
	assert.Empty(t, BeerTokens("Õlu"))
	assert.Empty(t, BeerTokens("   "))
}

func TestBreweryName(t *testing.T) {
	assert.Equal(t, "pühaste", BreweryName("Pühaste Brewing OÜ"))
	assert.Equal(t, "tanker", BreweryName("Tanker"))
	assert.Equal(t, "a", BreweryName("A Le Coq AS"))
}

func TestBreweryName_FirstPositionWins(t *testing.T) {
	// Positions 0 and 1 always qualify, so the first token wins.
	assert.Equal(t, "abc", BreweryName("ABC DE Brewing"))
}

func TestBreweryName_StripsSuffixMarkers(t *testing.T) {
	// "OÜ" strips to an empty token, which still occupies position 0.
	assert.Equal(t, "", BreweryName("OÜ Pühaste"))
	assert.Equal(t, "", BreweryName("Ales"))
}

func TestBreweryName_Empty(t *testing.T) {
	assert.Equal(t, "", BreweryName(""))
}
