package source

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fincal/internal/calendar"
	"github.com/wonny/fincal/internal/contracts"
	"github.com/wonny/fincal/pkg/config"
	"github.com/wonny/fincal/pkg/database"
)

func TestBuildQueries(t *testing.T) {
	q := buildQueries(config.DatabaseConfig{
		Table:        "data.daily_prices",
		DateColumn:   "trade_date",
		ValueColumn:  "close_price",
		SymbolColumn: "stock_code",
	})
	assert.Equal(t,
		`SELECT "stock_code", "trade_date", "close_price" FROM "data"."daily_prices" WHERE "stock_code" = $1 AND "trade_date" BETWEEN $2 AND $3 ORDER BY "trade_date" ASC`,
		q.byRange)
	assert.Equal(t,
		`SELECT "stock_code", "trade_date", "close_price" FROM "data"."daily_prices" WHERE "stock_code" = $1 ORDER BY "trade_date" DESC LIMIT 1`,
		q.latest)
}

func TestBuildQueries_QuotesIdentifiers(t *testing.T) {
	q := buildQueries(config.DatabaseConfig{Table: `prices"; DROP TABLE x; --`, DateColumn: "d", ValueColumn: "v", SymbolColumn: "s"})
	assert.Contains(t, q.latest, `FROM "prices""; DROP TABLE x; --"`)
}

// fakeRepo serves prices from memory
type fakeRepo struct {
	prices []contracts.Price
	err    error
}

func (f *fakeRepo) GetByCodeAndDateRange(_ context.Context, code string, from, to time.Time) ([]contracts.Price, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []contracts.Price
	for _, p := range f.prices {
		if p.Code == code && !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetLatestByCode(_ context.Context, code string) (*contracts.Price, error) {
	var latest *contracts.Price
	for i, p := range f.prices {
		if p.Code == code && (latest == nil || p.Date.After(latest.Date)) {
			latest = &f.prices[i]
		}
	}
	if latest == nil {
		return nil, contracts.ErrNotFound
	}
	return latest, nil
}

func TestLoadSymbol(t *testing.T) {
	repo := &fakeRepo{prices: []contracts.Price{
		{Code: "005930", Date: time.Date(2021, 1, 4, 9, 0, 0, 0, time.UTC), Close: 83000},
		{Code: "005930", Date: calendar.Date(2021, 1, 5), Close: 83900},
		{Code: "005930", Date: calendar.Date(2021, 1, 6), Close: 82200},
		{Code: "000660", Date: calendar.Date(2021, 1, 4), Close: 126000},
	}}
	ctx := context.Background()

	ts, err := LoadSymbol(ctx, repo, "005930", time.Time{}, time.Time{}, calendar.Daily, quiet())
	require.NoError(t, err)
	assert.Equal(t, 3, ts.Len())
	assert.Equal(t, calendar.Date(2021, 1, 4), ts.StartDate(), "times are truncated to the day")

	ts, err = LoadSymbol(ctx, repo, "005930", calendar.Date(2021, 1, 5), calendar.Date(2021, 1, 5), calendar.Daily, quiet())
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Len())

	_, err = LoadSymbol(ctx, repo, "035420", time.Time{}, time.Time{}, calendar.Daily, quiet())
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = LoadSymbol(ctx, repo, "005930", calendar.Date(2022, 1, 1), calendar.Date(2022, 2, 1), calendar.Daily, quiet())
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestPriceRepository_Integration(t *testing.T) {
	url := os.Getenv("FINCAL_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINCAL_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()

	cfg := &config.Config{Database: config.DatabaseConfig{
		URL:          url,
		MaxConns:     1, // temp table lives on a single connection
		Table:        "fincal_test_prices",
		DateColumn:   "trade_date",
		ValueColumn:  "close_price",
		SymbolColumn: "stock_code",
	}}
	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Pool.Exec(ctx, `CREATE TEMP TABLE fincal_test_prices (stock_code text, trade_date date, close_price numeric)`)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `INSERT INTO fincal_test_prices VALUES
		('005930', '2021-01-04', 83000), ('005930', '2021-01-05', 83900)`)
	require.NoError(t, err)

	repo := NewPriceRepository(db.Pool, cfg.Database)
	latest, err := repo.GetLatestByCode(ctx, "005930")
	require.NoError(t, err)
	assert.Equal(t, 83900.0, latest.Close)

	ts, err := LoadSymbol(ctx, repo, "005930", time.Time{}, time.Time{}, calendar.Daily, quiet())
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Len())

	_, err = repo.GetLatestByCode(ctx, "unknown")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}
