// Package strategy holds the catalog of named multi-leg option strategies
// and builds order documents from them.
package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"schwab/internal/order"
)

// ID names a strategy in the catalog.
type ID string

const (
	BearCall             ID = "bear_call"
	BearPut              ID = "bear_put"
	BullCall             ID = "bull_call"
	BullPut              ID = "bull_put"
	CoveredCall          ID = "covered_call"
	LongCallButterfly    ID = "long_call_butterfly"
	LongCallCondor       ID = "long_call_condor"
	LongPutCondor        ID = "long_put_condor"
	LongStraddle         ID = "long_straddle"
	LongStrangle         ID = "long_strangle"
	MarriedPut           ID = "married_put"
	ProtectiveCollar     ID = "protective_collar"
	ShortCallButterfly   ID = "short_call_butterfly"
	ShortCallCondor      ID = "short_call_condor"
	ShortIronCondor      ID = "short_iron_condor"
	StraddleStrangleSwap ID = "straddle_strangle_swap"
	IronButterfly        ID = "iron_butterfly"
	IronCondor           ID = "iron_condor"
	CalendarSpread       ID = "calendar_spread"
	DiagonalSpread       ID = "diagonal_spread"
)

// legTemplate describes one leg relative to the request parameters. A leg
// with an empty right is the underlying stock.
type legTemplate struct {
	instruction order.Instruction
	right       order.Right
	strike      string
	expiration  string
	ratio       int
}

func (l legTemplate) stock() bool { return l.right == "" }

// Definition is the fixed leg layout of a strategy.
type Definition struct {
	ID   ID
	Legs []legTemplate
}

// Params lists the parameters Build requires for d, in the order they are
// checked.
func (d Definition) Params() []string {
	out := []string{ParamSymbol, ParamQuantity}
	seen := map[string]bool{ParamSymbol: true, ParamQuantity: true}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, leg := range d.Legs {
		if leg.stock() {
			add(ParamStockQuantity)
			continue
		}
		add(leg.strike)
		add(leg.expiration)
	}
	return out
}

// Catalog maps strategy names to definitions. It is fixed at construction
// and safe for concurrent reads.
type Catalog struct {
	defs map[ID]Definition
}

// NewCatalog builds a catalog from defs. A later definition with the same ID
// wins.
func NewCatalog(defs ...Definition) *Catalog {
	c := &Catalog{defs: make(map[ID]Definition, len(defs))}
	for _, d := range defs {
		id := ID(strings.TrimSpace(string(d.ID)))
		if id == "" || len(d.Legs) == 0 {
			panic(fmt.Sprintf("strategy definition %q is incomplete", d.ID))
		}
		c.defs[id] = d
	}
	return c
}

// Definition returns a copy of the named definition.
func (c *Catalog) Definition(name string) (Definition, bool) {
	d, ok := c.defs[ID(strings.ToLower(strings.TrimSpace(name)))]
	if ok {
		d.Legs = append([]legTemplate(nil), d.Legs...)
	}
	return d, ok
}

// Existing returns the registered names in sorted order.
func (c *Catalog) Existing() []string {
	out := make([]string, 0, len(c.defs))
	for id := range c.defs {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the shared catalog holding the built-in strategies.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog(coreStrategies()...)
	})
	return defaultCatalog
}

// Existing lists the built-in strategy names.
func Existing() []string {
	return Default().Existing()
}

// Build builds name from the built-in catalog.
func Build(name string, assetType string, params Params) (order.Document, error) {
	return Default().Build(name, assetType, params)
}
