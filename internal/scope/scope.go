package scope

import (
	"fmt"
	"strings"
)

// Kind is a level of the geographic containment hierarchy
type Kind int

const (
	KindWorld Kind = iota
	KindContinent
	KindRegion
	KindCountry
	KindDistrict
	KindCity
)

var kindNames = []string{"world", "continent", "region", "country", "district", "city"}

// kindColumns holds the qualified column each kind filters on. Queries always
// alias the tables as country and city so the clause is valid in every family.
var kindColumns = map[Kind]string{
	KindContinent: "country.Continent",
	KindRegion:    "country.Region",
	KindCountry:   "country.Name",
	KindDistrict:  "city.District",
	KindCity:      "city.Name",
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a known scope kind
func (k Kind) Valid() bool {
	return k >= KindWorld && int(k) < len(kindNames)
}

// Column returns the column the kind filters on, empty for world
func (k Kind) Column() string {
	return kindColumns[k]
}

// CityLevel reports whether the kind filters on city attributes
func (k Kind) CityLevel() bool {
	return k == KindDistrict || k == KindCity
}

// ParseKind parses a scope kind name such as "continent"
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scope kind %q (expected one of %s)", s, strings.Join(kindNames, ", "))
}

// Scope selects a slice of the hierarchy. Value is ignored for world.
type Scope struct {
	Kind  Kind
	Value *string
}

// World returns the scope that matches everything
func World() Scope {
	return Scope{Kind: KindWorld}
}

// New returns a scope of the given kind named value
func New(kind Kind, value string) Scope {
	return Scope{Kind: kind, Value: &value}
}

// Name is the display name of the scope, "World" for the world scope
func (s Scope) Name() string {
	if s.Kind == KindWorld {
		return "World"
	}
	if s.Value == nil {
		return ""
	}
	return *s.Value
}

func (s Scope) String() string {
	if s.Kind == KindWorld {
		return "world"
	}
	return fmt.Sprintf("%s=%q", s.Kind, s.Name())
}

// Predicate is a parameterized WHERE fragment
type Predicate struct {
	Clause string
	Args   []interface{}
	none   bool
}

// MatchesNone reports whether the predicate can never match a row
func (p Predicate) MatchesNone() bool {
	return p.none
}

// Empty reports whether the predicate has no clause (world scope)
func (p Predicate) Empty() bool {
	return p.Clause == ""
}

// Predicate translates the scope into a WHERE fragment. A missing or blank
// value for a non-world kind yields a predicate that matches no rows.
// An invalid kind panics.
func (s Scope) Predicate() Predicate {
	if !s.Kind.Valid() {
		panic(fmt.Sprintf("scope: invalid kind %d", int(s.Kind)))
	}
	if s.Kind == KindWorld {
		return Predicate{}
	}
	if s.Value == nil || strings.TrimSpace(*s.Value) == "" {
		return Predicate{Clause: "1 = 0", none: true}
	}
	return Predicate{
		Clause: s.Kind.Column() + " = ?",
		Args:   []interface{}{*s.Value},
	}
}
