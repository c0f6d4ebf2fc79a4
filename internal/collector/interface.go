// Package collector defines the upstream data providers and the
// snapshot builder that turns raw bars into the scalar view the market
// agent consumes.
package collector

import (
	"context"

	"github.com/futusense/futusense/internal/core"
)

// PriceProvider fetches daily bars for one instrument code.
type PriceProvider interface {
	Name() string
	FetchBars(ctx context.Context, code string, lookbackDays int) ([]core.Bar, error)
}

// NewsProvider fetches scope-tagged news for one symbol. Macro items
// are shared across symbols; symbol items match the symbol's keywords.
type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, symbol core.Symbol) ([]core.NewsItem, error)
}

// FundamentalsProvider fetches the compacted fundamentals snapshot.
type FundamentalsProvider interface {
	Name() string
	FetchFundamentals(ctx context.Context, symbol core.Symbol) (core.FundamentalsSnapshot, error)
}
