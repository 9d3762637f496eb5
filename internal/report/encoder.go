// Package report renders extremum results into the compact fixed-grammar
// text lines sent over bandwidth-constrained transports.
//
// Three grammars share the same per-parameter tokens: the morning report
// covers today's stage, the evening report covers tomorrow's stage with a
// night-temperature prefix and a two-days-ahead thunderstorm outlook, and
// the dynamic report carries only the parameters whose facts changed.
// Every line is plain ASCII and at most MaxChars characters; when a line
// would run over, whole tokens are dropped in fixed priority order, never
// truncated mid-token.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/henemm/weather-email-autobot/internal/domain"
)

// Kind selects one of the three report grammars.
type Kind string

const (
	KindMorning Kind = "morning"
	KindEvening Kind = "evening"
	KindDynamic Kind = "dynamic"
)

// ErrBudget is returned when a report cannot fit the character budget even
// after dropping every optional token. The fixed grammars make this
// unreachable in practice; it is detected rather than silently truncated.
var ErrBudget = errors.New("report exceeds character budget")

// DefaultMaxChars is the transport line budget.
const DefaultMaxChars = 160

const nameBudget = 10

// Input is one encoding request. Results must hold an entry for every
// parameter the grammar covers; windows with no data carry an empty
// ExtremumResult and render as the null token.
type Input struct {
	Kind        Kind
	SegmentName string
	// NextSegmentName is the destination of tomorrow's stage; required by
	// the evening grammar, ignored otherwise.
	NextSegmentName string

	Results map[domain.ParameterID]domain.ExtremumResult

	// Changed restricts the dynamic grammar to the parameters that
	// triggered the send; ignored for scheduled kinds.
	Changed []domain.ParameterID

	// MaxChars overrides the line budget; zero means DefaultMaxChars.
	MaxChars int
}

type token struct {
	text     string
	priority int
}

// Encode renders one report line. It never fails on missing weather data;
// it fails only on missing structural input or a line that cannot fit.
func Encode(in Input) (string, error) {
	if in.SegmentName == "" {
		return "", errors.New("encode: segment name is required")
	}

	maxChars := in.MaxChars
	if maxChars == 0 {
		maxChars = DefaultMaxChars
	}

	var header string
	switch in.Kind {
	case KindMorning:
		header = AbbrevName(in.SegmentName, nameBudget) + ":"
	case KindEvening:
		if in.NextSegmentName == "" {
			return "", errors.New("encode: evening report requires the next segment name")
		}
		header = ContractNames(in.SegmentName, in.NextSegmentName, nameBudget) + ":"
	case KindDynamic:
		header = AbbrevName(in.SegmentName, nameBudget) + " Update:"
	default:
		return "", fmt.Errorf("encode: unknown report kind %q", in.Kind)
	}

	tokens, err := buildTokens(in)
	if err != nil {
		return "", err
	}

	line, err := assemble(header, tokens, maxChars)
	if err != nil {
		return "", fmt.Errorf("%w: %s report for %s", err, in.Kind, in.SegmentName)
	}
	return line, nil
}

func buildTokens(in Input) ([]token, error) {
	include := func(id domain.ParameterID) bool {
		_, ok := in.Results[id]
		return ok
	}
	if in.Kind == KindDynamic {
		if len(in.Changed) == 0 {
			return nil, errors.New("encode: dynamic report without changed parameters")
		}
		changed := make(map[domain.ParameterID]bool, len(in.Changed))
		for _, id := range in.Changed {
			changed[id] = true
		}
		include = func(id domain.ParameterID) bool {
			_, ok := in.Results[id]
			return ok && changed[id]
		}
	}

	var tokens []token
	for _, spec := range domain.Parameters() {
		if !include(spec.ID) {
			continue
		}
		tokens = append(tokens, token{
			text:     Token(spec, in.Results[spec.ID]),
			priority: spec.Priority,
		})
	}
	return tokens, nil
}

// assemble joins header and tokens, dropping lowest-priority tokens while
// the line runs over budget. Token order is preserved for the survivors.
func assemble(header string, tokens []token, maxChars int) (string, error) {
	line := func(ts []token) string {
		var b strings.Builder
		b.WriteString(header)
		for _, t := range ts {
			b.WriteByte(' ')
			b.WriteString(t.text)
		}
		return b.String()
	}

	for len(line(tokens)) > maxChars && len(tokens) > 0 {
		drop := 0
		for i, t := range tokens {
			if t.priority < tokens[drop].priority {
				drop = i
			}
		}
		tokens = append(tokens[:drop:drop], tokens[drop+1:]...)
	}

	out := line(tokens)
	if len(out) > maxChars {
		return "", ErrBudget
	}
	return out, nil
}

// SortByDisplayOrder orders parameter identifiers the way the grammars
// render them; used for deterministic audit entries.
func SortByDisplayOrder(ids []domain.ParameterID) {
	rank := make(map[domain.ParameterID]int)
	for i, spec := range domain.Parameters() {
		rank[spec.ID] = i
	}
	sort.Slice(ids, func(i, j int) bool { return rank[ids[i]] < rank[ids[j]] })
}
