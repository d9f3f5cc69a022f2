// Package numerator provides domain contracts for record auto-numbering.
package numerator

// Strategy defines how sequence values are obtained.
type Strategy int

const (
	// StrategyStrict hits the database for every number. No gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges in memory. Gaps appear after restarts.
	StrategyCached
)

// Options tune number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the reservation size for StrategyCached (default 50).
	RangeSize int64
}

// DefaultOptions returns strict numbering.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Reset periods.
const (
	ResetYear  = "year"
	ResetMonth = "month"
	ResetNever = "never"
)

// Config describes the shape of generated codes.
type Config struct {
	// Prefix added to all numbers (e.g. "PAT", "TRT")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod is one of ResetYear, ResetMonth, ResetNever
	ResetPeriod string
}

// DefaultConfig returns PREFIX-YEAR-00001 numbering reset every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYear,
	}
}

// Code prefixes used by the clinic catalogs.
const (
	PrefixPartner          = "PAT"
	PrefixTreatment        = "TRT"
	PrefixTreatmentHistory = "TH"
	PrefixSport            = "SPT"
	PrefixHistory          = "HIS"
)
