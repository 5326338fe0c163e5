package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/internal/timeseries"
	"github.com/wonny/fincal/pkg/config"
)

// PriceRepository implements contracts.PriceRepository over a Postgres
// table of (symbol, date, value) rows.
// ⭐ SSOT: 가격 데이터 조회는 여기서만
type PriceRepository struct {
	pool    *pgxpool.Pool
	queries priceQueries
}

type priceQueries struct {
	byRange string
	latest  string
}

// NewPriceRepository creates a repository reading the table and columns
// named in dc.
func NewPriceRepository(pool *pgxpool.Pool, dc config.DatabaseConfig) *PriceRepository {
	return &PriceRepository{pool: pool, queries: buildQueries(dc)}
}

func buildQueries(dc config.DatabaseConfig) priceQueries {
	table := pgx.Identifier(strings.Split(dc.Table, ".")).Sanitize()
	sym := pgx.Identifier{dc.SymbolColumn}.Sanitize()
	date := pgx.Identifier{dc.DateColumn}.Sanitize()
	value := pgx.Identifier{dc.ValueColumn}.Sanitize()

	selectCols := fmt.Sprintf("SELECT %s, %s, %s FROM %s", sym, date, value, table)
	return priceQueries{
		byRange: fmt.Sprintf("%s WHERE %s = $1 AND %s BETWEEN $2 AND $3 ORDER BY %s ASC",
			selectCols, sym, date, date),
		latest: fmt.Sprintf("%s WHERE %s = $1 ORDER BY %s DESC LIMIT 1", selectCols, sym, date),
	}
}

// GetByCodeAndDateRange retrieves prices for a code within date range
func (r *PriceRepository) GetByCodeAndDateRange(ctx context.Context, code string, from, to time.Time) ([]contracts.Price, error) {
	rows, err := r.pool.Query(ctx, r.queries.byRange, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices for %s: %w", code, err)
	}
	defer rows.Close()

	var prices []contracts.Price
	for rows.Next() {
		var p contracts.Price
		if err := rows.Scan(&p.Code, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// GetLatestByCode retrieves the most recent price for a code
func (r *PriceRepository) GetLatestByCode(ctx context.Context, code string) (*contracts.Price, error) {
	var p contracts.Price
	err := r.pool.QueryRow(ctx, r.queries.latest, code).Scan(&p.Code, &p.Date, &p.Close)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no prices for %s", contracts.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest price for %s: %w", code, err)
	}
	return &p, nil
}

// LoadSymbol reads code's prices in [from, to] from repo into a time
// series. A zero from or to leaves that side open.
func LoadSymbol(ctx context.Context, repo contracts.PriceRepository, code string, from, to time.Time, freq calendar.Frequency, tsOpts ...timeseries.Option) (*timeseries.TimeSeries, error) {
	if from.IsZero() {
		from = calendar.Date(1900, time.January, 1)
	}
	if to.IsZero() {
		latest, err := repo.GetLatestByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		to = latest.Date
	}

	prices, err := repo.GetByCodeAndDateRange(ctx, code, from, to)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no prices for %s between %s and %s", contracts.ErrNotFound, code,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	pairs := make(timeseries.Pairs, len(prices))
	for i, p := range prices {
		pairs[i] = timeseries.Pair{Date: calendar.Day(p.Date), Value: p.Close}
	}
	return timeseries.New(pairs, freq, tsOpts...)
}
