package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/henemm/weather-email-autobot/internal/domain"
)

// Token renders one parameter's extremum result into its fixed report token.
//
//	R55%@13(70%@15)   crossing at 13, distinct maximum at 15
//	R55%@15           crossing and maximum coincide (collapsed)
//	R35%@13           maximum only, threshold never crossed
//	R-                no data in the window
//	TH:M@14(H@16)     ordinal parameters render level letters
//	N8                value-only parameters carry no hour
func Token(spec domain.ParameterSpec, res domain.ExtremumResult) string {
	if res.Empty() {
		return spec.Abbrev + "-"
	}

	if spec.ValueOnly {
		return spec.Abbrev + formatValue(spec, res.Max.Value)
	}

	prefix := spec.Abbrev
	if spec.Ordinal {
		prefix += ":"
	}

	switch {
	case res.Crossing == nil:
		return prefix + obsToken(spec, *res.Max)
	case res.Collapsed:
		return prefix + obsToken(spec, *res.Crossing)
	default:
		return prefix + obsToken(spec, *res.Crossing) + "(" + obsToken(spec, *res.Max) + ")"
	}
}

func obsToken(spec domain.ParameterSpec, o domain.Observation) string {
	return formatValue(spec, o.Value) + "@" + strconv.Itoa(o.Hour())
}

func formatValue(spec domain.ParameterSpec, v domain.Value) string {
	if spec.Ordinal {
		return v.Level.Letter()
	}
	return strconv.FormatFloat(v.Num, 'f', spec.Decimals, 64) + spec.Unit
}

// asciiFold maps the accented characters common in route names onto plain
// ASCII; anything else non-ASCII becomes a question mark.
var asciiFold = strings.NewReplacer(
	"ä", "a", "ö", "o", "ü", "u", "Ä", "A", "Ö", "O", "Ü", "U", "ß", "ss",
	"é", "e", "è", "e", "ê", "e", "à", "a", "â", "a", "ô", "o", "î", "i", "ç", "c",
	"É", "E", "È", "E", "À", "A", "Ô", "O",
)

func toASCII(s string) string {
	s = asciiFold.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// AbbrevName shortens a segment name to at most max characters: the first
// whitespace-separated word, truncated if still too long.
func AbbrevName(name string, max int) string {
	name = toASCII(strings.TrimSpace(name))
	if i := strings.IndexAny(name, " \t"); i > 0 {
		name = name[:i]
	}
	if len(name) > max {
		name = name[:max]
	}
	return name
}

// ContractNames renders the evening header's "start->end" contraction
// within the same budget as a single name.
func ContractNames(from, to string, max int) string {
	// Reserve two characters for the arrow, split the rest evenly.
	half := (max - 2) / 2
	return fmt.Sprintf("%s->%s", AbbrevName(from, half), AbbrevName(to, half))
}
