// Package values normalizes the textual and numeric cell values found in
// lot and tolerance tables. Nothing here returns an error: unparseable input
// degrades to 0 or to a missing value.
package values

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// #region opt

// Opt is an optional float64. The zero value is missing.
type Opt struct {
	V  float64
	Ok bool
}

// Some returns a present value. NaN and infinities are treated as missing.
func Some(v float64) Opt {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Opt{}
	}
	return Opt{V: v, Ok: true}
}

// None is the missing value.
var None = Opt{}

// Or returns the value, or def when missing.
func (o Opt) Or(def float64) float64 {
	if !o.Ok {
		return def
	}
	return o.V
}

// Positive reports whether the value is present and > 0. Tolerance
// thresholds use 0 and missing alike to mean "no constraint".
func (o Opt) Positive() bool {
	return o.Ok && o.V > 0
}

// String renders the value the way failure reasons quote it.
func (o Opt) String() string {
	if !o.Ok {
		return "nan"
	}
	return FormatNumber(o.V)
}

// FormatNumber renders v with the shortest exact representation ("10", "12.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// #endregion opt

// #region parse

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// CleanNumericText strips '%', non-breaking spaces and any character other
// than digits, '.' and '-', converts a decimal comma to a point, then parses.
// Unparseable text yields None.
func CleanNumericText(s string) Opt {
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return None
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None
	}
	return Some(v)
}

// ParseFraction converts a percentage-like value to a fraction:
// "96,6%" -> 0.966, "96.6" -> 0.966, 0.966 -> 0.966. Magnitudes above 1 are
// taken as whole-number percentages. Unparseable input yields 0.
func ParseFraction(x any) float64 {
	var v float64
	switch t := x.(type) {
	case nil:
		return 0
	case Opt:
		if !t.Ok {
			return 0
		}
		v = t.V
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	case string:
		s := strings.TrimSpace(t)
		s = strings.ReplaceAll(s, "%", "")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		v = f
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > 1.0 {
		return v / 100.0
	}
	return v
}

// #endregion parse

// #region bounds

// NormalizeBounds treats 0 or missing as "no constraint" on that side.
// When both sides are present the result is ordered, repairing inverted
// ranges such as (88, 48).
func NormalizeBounds(lo, hi Opt) (Opt, Opt) {
	if lo.Ok && lo.V == 0 {
		lo = None
	}
	if hi.Ok && hi.V == 0 {
		hi = None
	}
	if lo.Ok && hi.Ok {
		return Some(math.Min(lo.V, hi.V)), Some(math.Max(lo.V, hi.V))
	}
	return lo, hi
}

// #endregion bounds

// #region canon

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Canon returns the comparison key for a column or variable name: accents
// removed, upper-cased, and spaces, '_', '-' and '/' dropped.
// "Sumatoria Condición" and "SUMATORIA_CONDICION" share a key.
func Canon(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = strings.ToUpper(strings.TrimSpace(out))
	return strings.NewReplacer(" ", "", "_", "", "-", "", "/", "").Replace(out)
}

// #endregion canon

// #region rounding

// Round2 rounds half to even at two decimals. Missing stays missing.
func Round2(o Opt) Opt {
	if !o.Ok {
		return o
	}
	return Some(math.RoundToEven(o.V*100) / 100)
}

// #endregion rounding
