// Package defects resolves which tolerance-limit fields cap which measured
// defect fields, using the cross-reference table.
package defects

import (
	"regexp"
	"strings"

	"github.com/carozos/lotalloc/internal/table"
	"github.com/carozos/lotalloc/internal/values"
)

// measuredPattern identifies real measured columns ("500.0__PIEL", "600.0__...").
var measuredPattern = regexp.MustCompile(`^\d{3}\.0__`)

// #region parse-category
// ParseCategory maps a cross-reference category label to a Category.
// Spanish and English labels are accepted in any case or accenting.
func ParseCategory(s string) Category {
	switch values.Canon(s) {
	case "CONDICION", "CONDITION":
		return Condition
	case "CALIDAD", "QUALITY":
		return Quality
	}
	return ""
}

// #endregion parse-category

// #region mapped
// Mapped returns the cross-reference rows whose measured field looks like a
// measured defect column, without checking the lot or tolerance tables.
// Rows with an empty tolerance or measured name are dropped.
func Mapped(cross *table.Table) []Pair {
	if cross == nil {
		return nil
	}
	var out []Pair
	for _, r := range cross.Rows {
		tol := strings.TrimSpace(r[ColTolerance])
		meas := strings.TrimSpace(r[ColMeasured])
		if tol == "" || meas == "" {
			continue
		}
		if !measuredPattern.MatchString(meas) {
			continue
		}
		out = append(out, Pair{Tolerance: tol, Measured: meas, Category: ParseCategory(r[ColCategory])})
	}
	return out
}

// #endregion mapped

// #region resolve
// Resolve keeps the mapped pairs whose measured field is a lot column and
// whose tolerance field is a tolerance column. Order follows the
// cross-reference table; a repeated canonical (tolerance, measured) pair is
// dropped. One measured field may back several tolerance caps, but it is
// listed at most once per category.
func Resolve(cross *table.Table, lotColumns, tolColumns []string) Mapping {
	lotSet := toSet(lotColumns)
	tolSet := toSet(tolColumns)

	var m Mapping
	seenPair := map[[2]string]bool{}
	seenCat := map[Category]map[string]bool{Condition: {}, Quality: {}}
	for _, p := range Mapped(cross) {
		if !lotSet[p.Measured] || !tolSet[p.Tolerance] {
			continue
		}
		cm := values.Canon(p.Measured)
		key := [2]string{values.Canon(p.Tolerance), cm}
		if seenPair[key] {
			continue
		}
		seenPair[key] = true
		m.Pairs = append(m.Pairs, p)

		seen, ok := seenCat[p.Category]
		if !ok || seen[cm] {
			continue
		}
		seen[cm] = true
		switch p.Category {
		case Condition:
			m.Condition = append(m.Condition, p.Measured)
		case Quality:
			m.Quality = append(m.Quality, p.Measured)
		}
	}
	return m
}

// ToleranceNames returns the distinct mapped tolerance-field names in
// cross-reference order.
func ToleranceNames(cross *table.Table) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range Mapped(cross) {
		if seen[p.Tolerance] {
			continue
		}
		seen[p.Tolerance] = true
		out = append(out, p.Tolerance)
	}
	return out
}

// #endregion resolve

func toSet(cols []string) map[string]bool {
	s := make(map[string]bool, len(cols))
	for _, c := range cols {
		s[c] = true
	}
	return s
}
