// Package material models ABX3 formulas and the substitution moves the
// composition walker is allowed to make.
package material

import (
	"fmt"
	"math/rand"
)

// Site indexes the three positions of an ABX3 formula.
type Site int

const (
	SiteA Site = iota
	SiteB
	SiteX
)

func (s Site) String() string {
	switch s {
	case SiteA:
		return "A"
	case SiteB:
		return "B"
	case SiteX:
		return "X"
	default:
		return fmt.Sprintf("Site(%d)", int(s))
	}
}

// Palettes are the allowed substitutions per site. Chalcogenide focused:
// the walker never proposes elements outside these sets.
var (
	PaletteA = []string{"Ba", "Sr", "Ca", "Eu", "Rb", "Cs", "K", "Na", "La", "Y"}
	PaletteB = []string{"Hf", "Zr", "Ti", "Sn", "Zn", "Mg", "Mn", "Ge", "Pb"}
	PaletteX = []string{"S", "Se", "Te", "Br", "Cl", "I"}
)

// Palette returns the candidate set for a site.
func Palette(s Site) []string {
	switch s {
	case SiteA:
		return PaletteA
	case SiteB:
		return PaletteB
	default:
		return PaletteX
	}
}

// Composition is an ordered A/B/X site assignment. The X site carries a
// stoichiometry of three.
type Composition struct {
	A string
	B string
	X string
}

// String reconstructs the formula string, e.g. {Ba Hf S} -> "BaHfS3".
func (c Composition) String() string {
	return c.A + c.B + c.X + "3"
}

// ElementCount pairs an element symbol with its stoichiometric count.
type ElementCount struct {
	Symbol string
	Count  float64
}

// Stoichiometry lists the composition's elements with ABX3 counts.
func (c Composition) Stoichiometry() []ElementCount {
	return []ElementCount{
		{Symbol: c.A, Count: 1},
		{Symbol: c.B, Count: 1},
		{Symbol: c.X, Count: 3},
	}
}

// Parse splits a formula into element tokens by capitalized-letter runs and
// assigns the first three to the A, B and X sites. Digits and any tokens past
// the third are ignored. Formulas with fewer than three tokens do not parse.
func Parse(formula string) (Composition, error) {
	tokens := elementTokens(formula)
	if len(tokens) < 3 {
		return Composition{}, fmt.Errorf("formula %q has %d element tokens, need 3", formula, len(tokens))
	}
	return Composition{A: tokens[0], B: tokens[1], X: tokens[2]}, nil
}

func elementTokens(formula string) []string {
	var tokens []string
	var current []byte
	for i := 0; i < len(formula); i++ {
		ch := formula[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			if len(current) > 0 {
				tokens = append(tokens, string(current))
			}
			current = []byte{ch}
		case ch >= 'a' && ch <= 'z':
			if len(current) > 0 {
				current = append(current, ch)
			}
		default:
			// digits and separators end nothing; counts are implied by the
			// ABX3 template
		}
	}
	if len(current) > 0 {
		tokens = append(tokens, string(current))
	}
	return tokens
}

// Mutate replaces one uniformly chosen site with a uniform draw from that
// site's palette. The draw may reproduce the incumbent element, in which case
// the proposal equals the current composition.
func Mutate(c Composition, rng *rand.Rand) Composition {
	site := Site(rng.Intn(3))
	pick := func(palette []string) string {
		return palette[rng.Intn(len(palette))]
	}
	switch site {
	case SiteA:
		c.A = pick(PaletteA)
	case SiteB:
		c.B = pick(PaletteB)
	default:
		c.X = pick(PaletteX)
	}
	return c
}
