package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"homely-price-discovery/models"
)

// DefaultSuburb is selected when the caller does not name one.
const DefaultSuburb = "Cronulla"

var defaultLadder = []int{
	200000, 250000, 300000, 350000, 400000, 450000, 500000, 550000, 600000, 700000,
	750000, 800000, 850000, 900000, 950000, 1000000, 1100000, 1200000, 1300000, 1400000,
	1500000, 1600000, 1700000, 1800000, 1900000, 2000000, 2250000, 2500000, 2750000, 3000000,
	3500000, 4000000, 4500000, 5000000, 6000000, 7000000, 8000000, 9000000, 10000000,
}

var defaultSuburbs = []models.Suburb{
	{Name: "Caringbah", ID: 5710753},
	{Name: "Caringbah South", ID: 6215183},
	{Name: "Dolans Bay", ID: 5710812},
	{Name: "Taren Point", ID: 5711145},
	{Name: "Cronulla", ID: 5710793},
	{Name: "Port Hacking", ID: 6217567},
}

// Endpoint identifies the GraphQL persisted query that answers sold searches.
type Endpoint struct {
	URL           string `yaml:"url"`
	OperationName string `yaml:"operation_name"`
	QueryHash     string `yaml:"query_hash"`
	Origin        string `yaml:"origin"`
}

// DefaultEndpoint is the Homely map-marker sold search.
var DefaultEndpoint = Endpoint{
	URL:           "https://bff.homely.com.au/graphql",
	OperationName: "listingMapMarkerSearch",
	QueryHash:     "f51020d6110a7a6730645cb8bcdd2a344462684c344b8d88836d7588d3bc39b8",
	Origin:        "https://www.homely.com.au",
}

// Market is the market data loaded once at startup: the price ladder, the
// suburb scope table and the oracle endpoint. Treat it as read-only.
type Market struct {
	Ladder   models.PriceLadder
	Suburbs  []models.Suburb
	Endpoint Endpoint
}

type marketFile struct {
	Ladder   []int           `yaml:"ladder"`
	Suburbs  []models.Suburb `yaml:"suburbs"`
	Endpoint Endpoint        `yaml:"endpoint"`
}

// DefaultMarket returns the built-in Sutherland Shire market.
func DefaultMarket() *Market {
	suburbs := make([]models.Suburb, len(defaultSuburbs))
	copy(suburbs, defaultSuburbs)
	return &Market{
		Ladder:   models.MustPriceLadder(defaultLadder),
		Suburbs:  suburbs,
		Endpoint: DefaultEndpoint,
	}
}

// LoadMarket reads a YAML market file. Sections missing from the file keep
// their built-in defaults. An empty path returns DefaultMarket.
func LoadMarket(path string) (*Market, error) {
	if path == "" {
		return DefaultMarket(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("market: read %q: %w", path, err)
	}
	return ParseMarket(data)
}

// ParseMarket decodes YAML market data over the defaults.
func ParseMarket(data []byte) (*Market, error) {
	var f marketFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("market: decode: %w", err)
	}

	m := DefaultMarket()
	if len(f.Ladder) > 0 {
		ladder, err := models.NewPriceLadder(f.Ladder)
		if err != nil {
			return nil, fmt.Errorf("market: %w", err)
		}
		m.Ladder = ladder
	}
	if len(f.Suburbs) > 0 {
		m.Suburbs = f.Suburbs
	}
	if f.Endpoint.URL != "" {
		m.Endpoint.URL = f.Endpoint.URL
	}
	if f.Endpoint.OperationName != "" {
		m.Endpoint.OperationName = f.Endpoint.OperationName
	}
	if f.Endpoint.QueryHash != "" {
		m.Endpoint.QueryHash = f.Endpoint.QueryHash
	}
	if f.Endpoint.Origin != "" {
		m.Endpoint.Origin = f.Endpoint.Origin
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Market) validate() error {
	seen := make(map[string]struct{}, len(m.Suburbs))
	for _, s := range m.Suburbs {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			return errors.New("market: suburb with empty name")
		}
		if s.ID <= 0 {
			return fmt.Errorf("market: suburb %q has invalid id %d", s.Name, s.ID)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("market: duplicate suburb %q", s.Name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Suburb looks up a suburb by name, ignoring case and surrounding space.
func (m *Market) Suburb(name string) (models.Suburb, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, s := range m.Suburbs {
		if strings.ToLower(s.Name) == want {
			return s, true
		}
	}
	return models.Suburb{}, false
}
