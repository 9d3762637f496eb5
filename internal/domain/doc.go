// Package domain models hourly weather forecast samples for a multi-day
// hiking route and the facts derived from them.
//
// # Samples
//
// The external fetch layer publishes one Sample per (timestamp, location,
// parameter, source). Timestamps are hourly and expressed in UTC wall-clock
// time; locations are the point identifiers of the route file. Several
// forecast models (sources) may report the same key with different values.
//
// # Worst-case merge
//
// Multiple sources for one (parameter, location, timestamp) key collapse to
// a single value by keeping the most severe one under the parameter's
// comparator (see [MergeSources]). Most parameters use a max comparator;
// parameters where a lower number means more risk (convective inhibition,
// night minimum temperature) use min. The merge never understates risk:
// the merged value is at least as severe as every contributing source.
// A key no source reported is simply absent, never imputed.
//
// # Severity levels
//
// Thunderstorm risk is an ordinal level rather than a number:
//
//	none < low < med < high
//
// Levels share the comparator abstraction with numeric values, so extremum
// extraction code is not duplicated per value kind.
//
// # Extremum extraction
//
// For one parameter over one aggregation window (location set x hour range),
// [Analyze] reduces the merged series to two facts: the first time the value
// meets the configured relevance threshold, and the global maximum. Ties on
// the maximum break deterministically: earliest time, then lowest location
// identifier. When the crossing value equals the maximum value the result is
// flagged collapsed so the report encoder renders a single token.
package domain
