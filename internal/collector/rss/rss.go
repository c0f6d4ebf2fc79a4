// Package rss fetches news from RSS/Atom feeds. Feeds are tagged with
// a scope: macro feeds apply to every symbol, symbol feeds are
// filtered against the symbol's keywords and feed code.
package rss

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/futusense/futusense/internal/core"
)

// Feed is one configured feed with its scope.
type Feed struct {
	Name  string
	URL   string
	Scope core.Scope
}

// Collector implements collector.NewsProvider over a feed list.
type Collector struct {
	feeds  []Feed
	parser *gofeed.Parser
	logger *zap.Logger
}

// New creates a collector over the given feeds.
func New(feeds []Feed, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

func (c *Collector) Name() string {
	return "rss"
}

// FetchNews fetches all configured feeds and returns the items that
// apply to the symbol. Feed failures degrade by skipping the feed;
// only all feeds failing is an error, so a partial outage still
// produces a record.
func (c *Collector) FetchNews(ctx context.Context, symbol core.Symbol) ([]core.NewsItem, error) {
	var (
		items  []core.NewsItem
		seen   = make(map[string]bool)
		failed int
	)

	for _, f := range c.feeds {
		feed, err := c.parser.ParseURLWithContext(expandURL(f.URL, symbol), ctx)
		if err != nil {
			failed++
			c.logger.Warn("feed fetch failed",
				zap.String("feed", f.Name),
				zap.Error(err))
			continue
		}

		for _, entry := range feed.Items {
			item := core.NewsItem{
				Title:  strings.TrimSpace(entry.Title),
				Source: f.Name,
				URL:    entry.Link,
				Scope:  f.Scope,
			}
			if entry.PublishedParsed != nil {
				item.PublishedAt = *entry.PublishedParsed
			} else if entry.UpdatedParsed != nil {
				item.PublishedAt = *entry.UpdatedParsed
			}
			if !item.IsValid() {
				continue
			}
			if f.Scope == core.ScopeSymbol && !matches(item.Title, symbol) {
				continue
			}
			key := strings.ToLower(item.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, item)
		}
	}

	if len(c.feeds) > 0 && failed == len(c.feeds) {
		return nil, core.WrapError(core.ErrUpstreamUnavailable,
			fmt.Errorf("all %d feeds failed", failed))
	}
	return items, nil
}

// expandURL substitutes symbol placeholders in query-template feeds,
// e.g. Google News search URLs with a {keyword} slot.
func expandURL(url string, symbol core.Symbol) string {
	if !strings.Contains(url, "{keyword}") {
		return url
	}
	keyword := symbol.Name
	if len(symbol.Keywords) > 0 {
		keyword = symbol.Keywords[0]
	}
	return strings.ReplaceAll(url, "{keyword}", keyword)
}

func matches(title string, symbol core.Symbol) bool {
	if symbol.Name != "" && strings.Contains(title, symbol.Name) {
		return true
	}
	for _, kw := range symbol.Keywords {
		if kw != "" && strings.Contains(title, kw) {
			return true
		}
	}
	return false
}
