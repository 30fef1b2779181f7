package table

import (
	"cmp"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var leadingFloatRe = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// leadingFloat reads a number from the start of s the way a lenient
// browser parser would: "12 days" is 12, "abc" is not a number.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	m := leadingFloatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out-of-range exponents still yield ±Inf with ErrRange.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// comparer orders cell texts: numerically when both sides parse as numbers,
// otherwise by case- and accent-insensitive collation. A collator is not safe
// for concurrent use, so each Table owns one.
type comparer struct {
	coll *collate.Collator
}

func newComparer() *comparer {
	return &comparer{coll: collate.New(language.Und, collate.Loose)}
}

func (c *comparer) compare(a, b string) int {
	na, okA := leadingFloat(a)
	nb, okB := leadingFloat(b)
	if okA && okB {
		return cmp.Compare(na, nb)
	}
	return c.coll.CompareString(a, b)
}
