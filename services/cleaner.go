package services

import (
	"fmt"
	"strconv"
	"strings"

	"homely-price-discovery/models"
	"homely-price-discovery/utils"
)

// Cleaner turns raw batch rows into property queries. Rows with no address
// are dropped and bad filter values become unconstrained; both produce a
// warning rather than an error.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean validates rows for suburb and returns the queries plus one warning
// per dropped row or ignored filter.
func (c *Cleaner) Clean(rows []models.InputRow, suburb models.Suburb, maxResults int) ([]*models.PropertyQuery, []string) {
	queries := make([]*models.PropertyQuery, 0, len(rows))
	var warnings []string
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		warnings = append(warnings, msg)
		c.logger.Warn("[cleaner] %s", msg)
	}

	for _, r := range rows {
		address := strings.TrimSpace(r.Address)
		if address == "" {
			warn("Line %d: empty address, skipping row.", r.Line)
			continue
		}
		if r.Spilled {
			warn("Line %d: address has unquoted commas, read it as '%s'.", r.Line, address)
		}

		filters := models.SearchFilters{
			Bedrooms:  c.parseCount(r.Line, "bedrooms", r.Bedrooms, warn),
			Bathrooms: c.parseCount(r.Line, "bathrooms", r.Bathrooms, warn),
			Carspaces: c.parseCount(r.Line, "carspaces", r.Carspaces, warn),
		}

		queries = append(queries, &models.PropertyQuery{
			Address:    address,
			Suburb:     suburb,
			Filters:    filters,
			MaxResults: maxResults,
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d rows (dropped %d)",
		len(rows), len(queries), len(rows)-len(queries))
	return queries, warnings
}

// parseCount reads an optional filter count. Blank and zero mean any;
// anything that is not a non-negative integer is reported and ignored.
func (c *Cleaner) parseCount(line int, key, raw string, warn func(string, ...any)) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		warn("Line %d: invalid integer for '%s' -> '%s', treating as 'any'.", line, key, raw)
		return 0
	}
	return n
}
