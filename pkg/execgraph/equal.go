package execgraph

import "fmt"

// Equivalent checks that actual has the same shape as expected: the same
// workers, the same vertex timestamps at each lifeline position, and for
// every slot of every vertex either no edge in both or edges with the same
// type, duration, qualifier and endpoint owners. Vertex identity is not
// compared. The returned error names the first difference.
func Equivalent(expected, actual *Graph) error {
	ew, aw := expected.Workers(), actual.Workers()
	if len(ew) != len(aw) {
		return fmt.Errorf("%w: %d workers, want %d", ErrNotEquivalent, len(aw), len(ew))
	}
	for _, w := range ew {
		if _, ok := actual.lifelines[w]; !ok {
			return fmt.Errorf("%w: worker %s missing", ErrNotEquivalent, w)
		}
	}

	for _, w := range ew {
		en, an := expected.lifelines[w], actual.lifelines[w]
		if len(en) != len(an) {
			return fmt.Errorf("%w: %s has %d vertices, want %d", ErrNotEquivalent, w, len(an), len(en))
		}
		for i := range en {
			if en[i].ts != an[i].ts {
				return fmt.Errorf("%w: %s vertex %d at %d, want %d", ErrNotEquivalent, w, i, an[i].ts, en[i].ts)
			}
			for _, d := range Directions {
				if err := edgesEquivalent(expected, actual, en[i].edges[d], an[i].edges[d]); err != nil {
					return fmt.Errorf("%w: %s vertex %d %s: %v", ErrNotEquivalent, w, i, d, err)
				}
			}
		}
	}
	return nil
}

// Equal is the boolean form of Equivalent
func Equal(a, b *Graph) bool {
	return Equivalent(a, b) == nil
}

func edgesEquivalent(eg, ag *Graph, e, a *Edge) error {
	switch {
	case e == nil && a == nil:
		return nil
	case e == nil:
		return fmt.Errorf("unexpected edge %s", a)
	case a == nil:
		return fmt.Errorf("missing edge %s", e)
	}
	if e.typ != a.typ {
		return fmt.Errorf("type %s, want %s", a.typ, e.typ)
	}
	if e.Duration() != a.Duration() {
		return fmt.Errorf("duration %d, want %d", a.Duration(), e.Duration())
	}
	if e.qualifier != a.qualifier {
		return fmt.Errorf("qualifier %q, want %q", a.qualifier, e.qualifier)
	}
	if eg.parents[e.from] != ag.parents[a.from] {
		return fmt.Errorf("source on %s, want %s", ag.parents[a.from], eg.parents[e.from])
	}
	if eg.parents[e.to] != ag.parents[a.to] {
		return fmt.Errorf("target on %s, want %s", ag.parents[a.to], eg.parents[e.to])
	}
	return nil
}
