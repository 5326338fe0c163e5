package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/timeseries"
)

// CSVOptions tune ReadCSV. The zero value reads columns 0 and 1 of a
// comma-separated file with a header row.
type CSVOptions struct {
	DateFormat string
	// ColNames select the date and value columns by header name and take
	// precedence over ColIndex
	ColNames [2]string
	ColIndex [2]int
	NoHeader bool
	// SkipRows are dropped before the header
	SkipRows int
	// NRows limits the data rows read; 0 reads everything
	NRows     int
	Delimiter rune
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, freq calendar.Frequency, opts CSVOptions, tsOpts ...timeseries.Option) (*timeseries.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, freq, opts, tsOpts...)
}

// ReadCSV reads (date, value) pairs from delimited text and builds a time
// series. Blank lines are skipped.
func ReadCSV(r io.Reader, freq calendar.Frequency, opts CSVOptions, tsOpts ...timeseries.Option) (*timeseries.TimeSeries, error) {
	pairs, err := ReadCSVPairs(r, opts)
	if err != nil {
		return nil, err
	}
	if opts.DateFormat != "" {
		tsOpts = append(slices.Clone(tsOpts), timeseries.WithDateFormat(opts.DateFormat))
	}
	return timeseries.New(pairs, freq, tsOpts...)
}

// ReadCSVPairs returns the selected columns as raw pairs.
func ReadCSVPairs(r io.Reader, opts CSVOptions) (timeseries.PairList, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", contracts.ErrParse, err)
		}
		if isBlank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: csv file is empty", contracts.ErrParse)
	}

	if opts.SkipRows > 0 {
		rows = rows[min(opts.SkipRows, len(rows)):]
	}

	var header []string
	if !opts.NoHeader {
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: csv has no header row after skipping %d rows", contracts.ErrParse, opts.SkipRows)
		}
		header, rows = rows[0], rows[1:]
	}
	if opts.NRows > 0 && opts.NRows < len(rows) {
		rows = rows[:opts.NRows]
	}

	dateCol, valueCol, err := csvColumns(header, opts)
	if err != nil {
		return nil, err
	}

	pairs := make(timeseries.PairList, 0, len(rows))
	for i, rec := range rows {
		if dateCol >= len(rec) || valueCol >= len(rec) {
			return nil, fmt.Errorf("%w: csv row %d has %d fields, need columns %d and %d",
				contracts.ErrParse, i, len(rec), dateCol, valueCol)
		}
		pairs = append(pairs, timeseries.RawPair{Date: rec[dateCol], Value: rec[valueCol]})
	}
	return pairs, nil
}

func csvColumns(header []string, opts CSVOptions) (int, int, error) {
	if opts.ColNames == [2]string{} {
		ci := opts.ColIndex
		if ci[0] < 0 || ci[1] < 0 {
			return 0, 0, fmt.Errorf("%w: negative column index %v", contracts.ErrValidation, ci)
		}
		if ci == [2]int{} {
			ci = [2]int{0, 1}
		}
		return ci[0], ci[1], nil
	}
	if header == nil {
		return 0, 0, fmt.Errorf("%w: column names need a header row", contracts.ErrValidation)
	}
	dateCol := slices.Index(header, opts.ColNames[0])
	valueCol := slices.Index(header, opts.ColNames[1])
	if dateCol < 0 || valueCol < 0 {
		return 0, 0, fmt.Errorf("%w: columns %q not found in header %q", contracts.ErrValidation, opts.ColNames, header)
	}
	return dateCol, valueCol, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}
