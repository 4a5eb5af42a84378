package registry

import (
	"maps"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Aliases maps legal producer or applicant names to the brand name the
// catalog shows. It is never modified after construction.
type Aliases struct {
	m map[string]string
}

// NewAliases builds an alias table from a copy of m.
func NewAliases(m map[string]string) Aliases {
	return Aliases{m: maps.Clone(m)}
}

// DefaultAliases returns the aliases for breweries whose registered company
// name differs from their brand.
func DefaultAliases() Aliases {
	return NewAliases(map[string]string{
		"59N Brewing OÜ":   "Tanker",
		"Humalasulased OÜ": "Pühaste",
		"Õllekunsti OÜ":    "Põhjala",
		"V.Kase OÜ":        "Õllevõlur",
	})
}

// Resolve returns the alias for name, or name itself when none is defined.
func (a Aliases) Resolve(name string) string {
	if alias, ok := a.m[name]; ok {
		return alias
	}
	return name
}

// Len returns the number of aliases.
func (a Aliases) Len() int {
	return len(a.m)
}

// Merge returns a new table with other's entries layered over a's.
func (a Aliases) Merge(other map[string]string) Aliases {
	m := maps.Clone(a.m)
	if m == nil {
		m = make(map[string]string, len(other))
	}
	maps.Copy(m, other)
	return Aliases{m: m}
}

// LoadAliasFile reads a YAML mapping of registered name to brand name.
func LoadAliasFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read alias file %s", path)
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "registry: parse alias file %s", path)
	}
	return m, nil
}
