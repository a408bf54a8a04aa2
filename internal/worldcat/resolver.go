package worldcat

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Characters allowed in search terms: word characters, whitespace and the
// accented Latin letters common in Spanish-language titles.
var searchTermStrip = regexp.MustCompile(`[^0-9A-Za-z_\sáéíóúüñÁÉÍÓÚÜÑ]`)

// CleanSearchTerm strips query-breaking punctuation and collapses
// whitespace.
func CleanSearchTerm(term string) string {
	cleaned := searchTermStrip.ReplaceAllString(term, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// searchQueries builds the strategy ladder, most to least restrictive.
func searchQueries(title, author string) []string {
	return []string{
		fmt.Sprintf(`ti:"%s" AND au:"%s"`, title, author),
		fmt.Sprintf(`ti:%s AND au:%s`, title, author),
		fmt.Sprintf(`"%s" AND "%s"`, title, author),
		fmt.Sprintf(`%s %s`, title, author),
	}
}

// ResolveNumber searches for the OCLC number matching a title/author pair.
// Strategies are tried in order and the first one returning a hit wins; a
// short delay separates failed attempts. Absence of a match is a normal
// outcome and returns "", nil — only context cancellation is an error.
func (c *Client) ResolveNumber(ctx context.Context, title, author string) (string, error) {
	queries := searchQueries(CleanSearchTerm(title), CleanSearchTerm(author))

	for i, query := range queries {
		number, err := c.searchBibs(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			// Request errors count as a miss for this strategy.
			slog.Debug("Search strategy failed", "strategy", i+1, "error", err)
		}
		if number != "" {
			return number, nil
		}

		if i < len(queries)-1 {
			if err := sleepCtx(ctx, c.strategyDelay); err != nil {
				return "", err
			}
		}
	}

	return "", nil
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
