package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultDateFormat is the strftime-style layout used when nothing else is set.
const DefaultDateFormat = "%Y-%m-%d"

// Options are the fallback parameters read by the calculation packages.
// Every operation also accepts these explicitly; the process-wide copy only
// fills in what the caller left empty.
type Options struct {
	DateFormat string `yaml:"date_format" json:"date_format"`
	Closest    string `yaml:"closest" json:"closest"`         // previous | next | exact
	TradedDays int    `yaml:"traded_days" json:"traded_days"` // volatility annualisation
	GetClosest string `yaml:"get_closest" json:"get_closest"` // policy for plain Get
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		DateFormat: DefaultDateFormat,
		Closest:    "previous",
		TradedDays: 365,
		GetClosest: "exact",
	}
}

// Validate checks every field. Policy strings are matched exactly.
func (o Options) Validate() error {
	if o.DateFormat == "" {
		return fmt.Errorf("date_format must not be empty")
	}
	if !validPolicy(o.Closest) {
		return fmt.Errorf("invalid closest policy %q: must be previous, next or exact", o.Closest)
	}
	if !validPolicy(o.GetClosest) {
		return fmt.Errorf("invalid get_closest policy %q: must be previous, next or exact", o.GetClosest)
	}
	if o.TradedDays <= 0 {
		return fmt.Errorf("traded_days must be > 0, got %d", o.TradedDays)
	}
	return nil
}

// Merge returns o with empty fields taken from fallback.
func (o Options) Merge(fallback Options) Options {
	if o.DateFormat == "" {
		o.DateFormat = fallback.DateFormat
	}
	if o.Closest == "" {
		o.Closest = fallback.Closest
	}
	if o.TradedDays == 0 {
		o.TradedDays = fallback.TradedDays
	}
	if o.GetClosest == "" {
		o.GetClosest = fallback.GetClosest
	}
	return o
}

func validPolicy(p string) bool {
	return p == "previous" || p == "next" || p == "exact"
}

// =============================================================================
// Process-wide defaults
// =============================================================================

var (
	defaultsMu sync.RWMutex
	defaults   = DefaultOptions()
)

// Defaults returns a copy of the process-wide options.
func Defaults() Options {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaults
}

// SetDefaults replaces the process-wide options. Empty fields keep their
// built-in values. Concurrent writers race; last write wins.
func SetDefaults(o Options) error {
	o = o.Merge(DefaultOptions())
	if err := o.Validate(); err != nil {
		return err
	}

	defaultsMu.Lock()
	defaults = o
	defaultsMu.Unlock()
	return nil
}

// ResetDefaults restores the built-in defaults.
func ResetDefaults() {
	defaultsMu.Lock()
	defaults = DefaultOptions()
	defaultsMu.Unlock()
}

// =============================================================================
// YAML options file
// =============================================================================

// LoadOptionsFile reads an options YAML file. Unknown keys fail immediately.
// Missing keys fall back to the built-in defaults.
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options file: %w", err)
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML options.
func ParseOptions(data []byte) (Options, error) {
	var opts Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}

	opts = opts.Merge(DefaultOptions())
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
