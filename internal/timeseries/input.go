package timeseries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
)

// Input is one of the accepted construction shapes: PairList,
// SingleKeyRecords, DoubleKeyRecords, StringMap, TimeMap or Pairs.
type Input interface {
	normalize(format string) ([]Pair, error)
}

// RawPair is a (date, value) pair before coercion. Date may be a string or
// a time.Time; Value any number or numeric string.
type RawPair struct {
	Date  any
	Value any
}

// PairList is a list of raw (date, value) pairs.
type PairList []RawPair

// SingleKeyRecords is a list of {date: value} objects with exactly one key.
type SingleKeyRecords []map[string]any

// DoubleKeyRecords is a list of two-field records: the first field holds
// the date, the second the value. Field names are ignored.
type DoubleKeyRecords []Record

// StringMap maps date strings to values.
type StringMap map[string]any

// TimeMap maps dates to values.
type TimeMap map[time.Time]float64

// Pairs is already typed input.
type Pairs []Pair

func (in PairList) normalize(format string) ([]Pair, error) {
	out := make([]Pair, len(in))
	for i, raw := range in {
		p, err := coercePair(raw.Date, raw.Value, format)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (in SingleKeyRecords) normalize(format string) ([]Pair, error) {
	out := make([]Pair, len(in))
	for i, rec := range in {
		if len(rec) != 1 {
			return nil, fmt.Errorf("%w: record %d has %d keys, expected exactly one {date: value}", contracts.ErrParse, i, len(rec))
		}
		for k, v := range rec {
			p, err := coercePair(k, v, format)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			out[i] = p
		}
	}
	return out, nil
}

func (in DoubleKeyRecords) normalize(format string) ([]Pair, error) {
	out := make([]Pair, len(in))
	for i, rec := range in {
		if len(rec) != 2 {
			return nil, fmt.Errorf("%w: record %d has %d fields, expected date and value", contracts.ErrParse, i, len(rec))
		}
		p, err := coercePair(rec[0].Value, rec[1].Value, format)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (in StringMap) normalize(format string) ([]Pair, error) {
	out := make([]Pair, 0, len(in))
	for k, v := range in {
		p, err := coercePair(k, v, format)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (in TimeMap) normalize(string) ([]Pair, error) {
	out := make([]Pair, 0, len(in))
	for d, v := range in {
		out = append(out, Pair{Date: calendar.Day(d), Value: v})
	}
	return out, nil
}

func (in Pairs) normalize(string) ([]Pair, error) {
	out := make([]Pair, len(in))
	for i, p := range in {
		out[i] = Pair{Date: calendar.Day(p.Date), Value: p.Value}
	}
	return out, nil
}

func coercePair(date, value any, format string) (Pair, error) {
	d, err := calendar.ToDate(date, format)
	if err != nil {
		return Pair{}, err
	}
	v, err := ToFloat(value)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Date: d, Value: v}, nil
}

// ToFloat coerces a number or numeric string to float64. Bools and nil
// are rejected.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: value %q is not numeric", contracts.ErrParse, n.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: value %q is not numeric", contracts.ErrParse, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: value of type %T is not numeric", contracts.ErrParse, v)
	}
}

// =============================================================================
// JSON
// =============================================================================

// Field is one key/value entry of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is a JSON object that remembers its key order.
type Record []Field

// UnmarshalJSON decodes an object keeping the order of its keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: record must be a JSON object", contracts.ErrParse)
	}

	var fields Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = fields
	return nil
}

// DecodeJSON detects which input shape a JSON document encodes:
//
//	{"2021-01-01": 1, ...}                      → StringMap
//	[["2021-01-01", 1], ...]                    → PairList
//	[{"2021-01-01": 1}, ...]                    → SingleKeyRecords
//	[{"date": "2021-01-01", "value": 1}, ...]   → DoubleKeyRecords
//
// The shape is chosen from the first element.
func DecodeJSON(data []byte) (Input, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty JSON input", contracts.ErrParse)
	}

	dec := func(v any) error {
		d := json.NewDecoder(bytes.NewReader(trimmed))
		d.UseNumber()
		if err := d.Decode(v); err != nil {
			return fmt.Errorf("%w: %v", contracts.ErrParse, err)
		}
		return nil
	}

	switch trimmed[0] {
	case '{':
		var m map[string]any
		if err := dec(&m); err != nil {
			return nil, err
		}
		return StringMap(m), nil

	case '[':
		var items []json.RawMessage
		if err := dec(&items); err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: input contains no observations", contracts.ErrParse)
		}

		first := bytes.TrimSpace(items[0])
		if len(first) > 0 && first[0] == '[' {
			var rows [][]any
			if err := dec(&rows); err != nil {
				return nil, err
			}
			list := make(PairList, len(rows))
			for i, row := range rows {
				if len(row) != 2 {
					return nil, fmt.Errorf("%w: row %d has %d elements, expected [date, value]", contracts.ErrParse, i, len(row))
				}
				list[i] = RawPair{Date: row[0], Value: row[1]}
			}
			return list, nil
		}

		var records DoubleKeyRecords
		if err := dec(&records); err != nil {
			return nil, err
		}
		switch len(records[0]) {
		case 1:
			single := make(SingleKeyRecords, len(records))
			for i, rec := range records {
				m := make(map[string]any, len(rec))
				for _, f := range rec {
					m[f.Key] = f.Value
				}
				single[i] = m
			}
			return single, nil
		case 2:
			return records, nil
		default:
			return nil, fmt.Errorf("%w: records must have one {date: value} or two (date, value) keys, got %d",
				contracts.ErrParse, len(records[0]))
		}
	}
	return nil, fmt.Errorf("%w: JSON input must be an object or an array", contracts.ErrParse)
}
