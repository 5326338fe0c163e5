package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// PriceRepository reads stored closing prices
type PriceRepository interface {
	GetByCodeAndDateRange(ctx context.Context, code string, from, to time.Time) ([]Price, error)
	GetLatestByCode(ctx context.Context, code string) (*Price, error)
}

// Price represents one stored closing price
type Price struct {
	Code  string
	Date  time.Time
	Close float64
}
