package commands

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/source"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/database"
	"github.com/wonny/fincal/pkg/httputil"
	"github.com/wonny/fincal/pkg/logger"
)

var errNoInput = errors.New("one of --file, --url or --symbol is required")

// inputFlags select where a series is read from. prefix distinguishes a
// second series (e.g. "benchmark-") on the same command.
type inputFlags struct {
	prefix string

	file   string
	url    string
	symbol string

	freq       string
	dateFormat string

	// CSV
	dateCol   string
	valueCol  string
	delimiter string
	skipRows  int
	noHeader  bool

	// HTML
	selector string
	table    int

	// Postgres
	since string
	until string
}

func (in *inputFlags) name(flag string) string {
	return in.prefix + flag
}

// bind registers the flags on cmd
func (in *inputFlags) bind(cmd *cobra.Command, prefix, what string) {
	in.prefix = prefix
	f := cmd.Flags()
	f.StringVar(&in.file, in.name("file"), "", what+" CSV 파일")
	f.StringVar(&in.url, in.name("url"), "", what+" HTML 테이블 URL")
	f.StringVar(&in.symbol, in.name("symbol"), "", what+" 종목 코드 (PostgreSQL)")
	f.StringVar(&in.freq, in.name("freq"), "D", what+" 빈도 (D, W, M, Q, H, Y)")
	f.StringVar(&in.dateFormat, in.name("date-format"), "", what+" 날짜 포맷 (기본: options date_format)")

	f.StringVar(&in.dateCol, in.name("date-col"), "", "CSV 날짜 컬럼 이름")
	f.StringVar(&in.valueCol, in.name("value-col"), "", "CSV 값 컬럼 이름")
	f.StringVar(&in.delimiter, in.name("delimiter"), ",", "CSV 구분자")
	f.IntVar(&in.skipRows, in.name("skip-rows"), 0, "CSV 헤더 앞에서 건너뛸 행 수")
	f.BoolVar(&in.noHeader, in.name("no-header"), false, "CSV 헤더 없음")

	f.StringVar(&in.selector, in.name("selector"), "table", "HTML 테이블 CSS selector")
	f.IntVar(&in.table, in.name("table"), 0, "selector 매칭 중 테이블 순번")

	f.StringVar(&in.since, in.name("since"), "", "PostgreSQL 조회 시작일 (YYYY-MM-DD)")
	f.StringVar(&in.until, in.name("until"), "", "PostgreSQL 조회 종료일 (YYYY-MM-DD, 기본: 최신)")
}

// given reports whether any source flag was set
func (in *inputFlags) given() bool {
	return in.file != "" || in.url != "" || in.symbol != ""
}

func (in *inputFlags) validate() error {
	n := 0
	for _, s := range []string{in.file, in.url, in.symbol} {
		if s != "" {
			n++
		}
	}
	switch {
	case n == 0:
		if in.prefix != "" {
			return fmt.Errorf("one of --%s, --%s or --%s is required", in.name("file"), in.name("url"), in.name("symbol"))
		}
		return errNoInput
	case n > 1:
		return fmt.Errorf("--%s, --%s and --%s are mutually exclusive", in.name("file"), in.name("url"), in.name("symbol"))
	}
	if utf8.RuneCountInString(in.delimiter) != 1 {
		return fmt.Errorf("--%s must be a single character", in.name("delimiter"))
	}
	return nil
}

func (in *inputFlags) csvOptions() source.CSVOptions {
	delim, _ := utf8.DecodeRuneInString(in.delimiter)
	opts := source.CSVOptions{
		DateFormat: in.dateFormat,
		NoHeader:   in.noHeader,
		SkipRows:   in.skipRows,
		Delimiter:  delim,
	}
	if in.dateCol != "" || in.valueCol != "" {
		opts.ColNames = [2]string{in.dateCol, in.valueCol}
	}
	return opts
}

func (in *inputFlags) htmlOptions() source.HTMLOptions {
	return source.HTMLOptions{
		Selector:    in.selector,
		TableIndex:  in.table,
		DateFormat:  in.dateFormat,
		DateHeader:  in.dateCol,
		ValueHeader: in.valueCol,
	}
}

func (in *inputFlags) symbolRange() (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if in.since != "" {
		if from, err = time.Parse("2006-01-02", in.since); err != nil {
			return from, to, fmt.Errorf("--%s: %w", in.name("since"), err)
		}
	}
	if in.until != "" {
		if to, err = time.Parse("2006-01-02", in.until); err != nil {
			return from, to, fmt.Errorf("--%s: %w", in.name("until"), err)
		}
	}
	return from, to, nil
}

// load reads the selected source into a time series
func (in *inputFlags) load(ctx context.Context, cfg *config.Config, log *logger.Logger) (*timeseries.TimeSeries, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	freq, err := calendar.FrequencyFor(in.freq)
	if err != nil {
		return nil, err
	}
	tsOpts := []timeseries.Option{timeseries.WithLogger(log), timeseries.WithOptions(cfg.Options)}

	switch {
	case in.file != "":
		log.WithField("file", in.file).Debug("Reading CSV")
		return source.ReadCSVFile(in.file, freq, in.csvOptions(), tsOpts...)

	case in.url != "":
		log.WithField("url", in.url).Debug("Fetching HTML table")
		client := httputil.New(cfg, log)
		return source.FetchHTMLTable(ctx, client, in.url, freq, in.htmlOptions(), tsOpts...)

	default:
		from, to, err := in.symbolRange()
		if err != nil {
			return nil, err
		}
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		log.WithField("symbol", in.symbol).Debug("Loading prices")
		repo := source.NewPriceRepository(db.Pool, cfg.Database)
		ts, err := source.LoadSymbol(ctx, repo, in.symbol, from, to, freq, tsOpts...)
		if err != nil {
			return nil, err
		}
		log.Infof("Loaded %d prices for %s", ts.Len(), in.symbol)
		return ts, nil
	}
}
