package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/httputil"
)

// HTMLOptions select the table and columns read by ParseHTMLTable.
type HTMLOptions struct {
	// Selector matches candidate tables; empty means "table"
	Selector   string
	TableIndex int
	DateFormat string
	// DateHeader and ValueHeader pick columns by header text; when empty
	// ColIndex is used
	DateHeader  string
	ValueHeader string
	ColIndex    [2]int
}

// FetchHTMLTable downloads url through client and parses it.
func FetchHTMLTable(ctx context.Context, client *httputil.Client, url string, freq calendar.Frequency, opts HTMLOptions, tsOpts ...timeseries.Option) (*timeseries.TimeSeries, error) {
	body, err := client.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch price table: %w", err)
	}
	return ParseHTMLTable(bytes.NewReader(body), freq, opts, tsOpts...)
}

// ParseHTMLTable reads (date, value) rows from an HTML table. Rows with an
// empty date or value cell (separators, padding) are skipped; thousands
// separators are removed from values.
func ParseHTMLTable(r io.Reader, freq calendar.Frequency, opts HTMLOptions, tsOpts ...timeseries.Option) (*timeseries.TimeSeries, error) {
	pairs, err := HTMLTablePairs(r, opts)
	if err != nil {
		return nil, err
	}
	if opts.DateFormat != "" {
		tsOpts = append(slices.Clone(tsOpts), timeseries.WithDateFormat(opts.DateFormat))
	}
	return timeseries.New(pairs, freq, tsOpts...)
}

// HTMLTablePairs returns the selected columns of the table as raw pairs.
func HTMLTablePairs(r io.Reader, opts HTMLOptions) (timeseries.PairList, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: html: %v", contracts.ErrParse, err)
	}

	selector := opts.Selector
	if selector == "" {
		selector = "table"
	}
	tables := doc.Find(selector)
	if opts.TableIndex < 0 || opts.TableIndex >= tables.Length() {
		return nil, fmt.Errorf("%w: table %d not found (%d match %q)", contracts.ErrParse, opts.TableIndex, tables.Length(), selector)
	}
	table := tables.Eq(opts.TableIndex)

	var header []string
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		th := row.Find("th")
		if th.Length() == 0 {
			return true
		}
		th.Each(func(_ int, cell *goquery.Selection) {
			header = append(header, cellText(cell))
		})
		return false
	})

	dateCol, valueCol := opts.ColIndex[0], opts.ColIndex[1]
	if opts.ColIndex == [2]int{} {
		dateCol, valueCol = 0, 1
	}
	if opts.DateHeader != "" || opts.ValueHeader != "" {
		dateCol = slices.Index(header, opts.DateHeader)
		valueCol = slices.Index(header, opts.ValueHeader)
		if dateCol < 0 || valueCol < 0 {
			return nil, fmt.Errorf("%w: headers %q/%q not found in %q", contracts.ErrValidation,
				opts.DateHeader, opts.ValueHeader, header)
		}
	}

	var pairs timeseries.PairList
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= max(dateCol, valueCol) {
			return
		}
		date := cellText(cells.Eq(dateCol))
		value := strings.ReplaceAll(cellText(cells.Eq(valueCol)), ",", "")
		if date == "" || value == "" {
			return
		}
		pairs = append(pairs, timeseries.RawPair{Date: date, Value: value})
	})
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: table %d has no data rows", contracts.ErrParse, opts.TableIndex)
	}
	return pairs, nil
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
