// Package homely implements the price-range oracle on top of Homely's sold
// listings search.
package homely

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"homely-price-discovery/config"
	"homely-price-discovery/models"
	"homely-price-discovery/oracle"
	"homely-price-discovery/utils"
)

const (
	// PageSize is the number of listings requested per page.
	PageSize = 25
	// DefaultMaxResults is used when a query does not set a scan cap.
	DefaultMaxResults = 500

	maxBodyBytes = 4 << 20
)

// Backoff is the pause taken after a failed page, per fault kind.
type Backoff struct {
	Timeout    time.Duration
	Connection time.Duration
	Status     time.Duration
	Malformed  time.Duration
}

// DefaultBackoff returns the per-kind pauses taken after a failed page.
func DefaultBackoff() Backoff {
	return Backoff{
		Timeout:    2 * time.Second,
		Connection: 3 * time.Second,
		Malformed:  2 * time.Second,
	}
}

func (b Backoff) after(kind oracle.FaultKind) time.Duration {
	switch kind {
	case oracle.FaultTimeout:
		return b.Timeout
	case oracle.FaultConnection:
		return b.Connection
	case oracle.FaultStatus:
		return b.Status
	case oracle.FaultMalformed:
		return b.Malformed
	default:
		return 0
	}
}

// Options configures a Client. Zero values take the documented defaults.
type Options struct {
	Endpoint config.Endpoint
	// Timeout bounds one page request. Default 30s.
	Timeout time.Duration
	// Retries is the transport-level retry count. Failed pages are skipped,
	// not retried, so the default is 0.
	Retries int
	Backoff *Backoff
	Pacer   *utils.Pacer
	Logger  *utils.Logger
}

// Client asks Homely whether a listing appears in a sold search for a price
// range. It is not safe for concurrent use by design: calls are paced.
type Client struct {
	endpoint config.Endpoint
	http     *retryablehttp.Client
	pacer    *utils.Pacer
	backoff  Backoff
	logger   *utils.Logger
}

// NewClient creates a ready-to-use Client.
func NewClient(opts Options) *Client {
	if opts.Endpoint.URL == "" {
		opts.Endpoint = config.DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDiscardLogger()
	}
	backoff := DefaultBackoff()
	if opts.Backoff != nil {
		backoff = *opts.Backoff
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = opts.Retries
	rc.HTTPClient.Timeout = opts.Timeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = opts.Logger.Slog()

	return &Client{
		endpoint: opts.Endpoint,
		http:     rc,
		pacer:    opts.Pacer,
		backoff:  backoff,
		logger:   opts.Logger,
	}
}

// PagesFor returns how many pages a scan cap of maxResults covers.
func PagesFor(maxResults int) int {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return (maxResults + PageSize - 1) / PageSize
}

// Contains reports whether the query's address appears among sold listings
// priced within [minPrice, maxPrice]. Pages are scanned until a match, an
// empty page, or the scan cap. A page that fails is skipped after a back-off;
// if no match is found and any page failed, the returned error is an
// *oracle.Fault.
func (c *Client) Contains(ctx context.Context, query *models.PropertyQuery, minPrice, maxPrice int) (bool, error) {
	target := query.NormalizedAddress()
	if target == "" {
		return false, nil
	}
	pages := PagesFor(query.MaxResults)

	var fault *oracle.Fault
	for page := 0; page < pages; page++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return false, degrade(fault, &oracle.Fault{Kind: oracle.FaultCanceled, Page: page, Err: err})
		}

		addresses, err := c.fetchPage(ctx, query, minPrice, maxPrice, page)
		if err != nil {
			var pf *oracle.Fault
			if !errors.As(err, &pf) {
				pf = &oracle.Fault{Kind: oracle.FaultConnection, Page: page, Err: err}
			}
			fault = degrade(fault, pf)
			c.logger.Warn("[homely] page %d for [%d, %d] skipped: %v", page, minPrice, maxPrice, pf)
			if pf.Kind == oracle.FaultCanceled {
				return false, fault
			}
			if err := utils.Sleep(ctx, c.backoff.after(pf.Kind)); err != nil {
				return false, degrade(fault, &oracle.Fault{Kind: oracle.FaultCanceled, Page: page, Err: err})
			}
			continue
		}

		if len(addresses) == 0 {
			// No more matches in this price scope.
			break
		}
		for _, addr := range addresses {
			if addr == "" {
				continue
			}
			if strings.Contains(models.NormalizeAddress(addr), target) {
				c.logger.Debug("[homely] match on page %d for [%d, %d]: %s", page, minPrice, maxPrice, addr)
				return true, nil
			}
		}
	}

	if fault != nil {
		return false, fault
	}
	return false, nil
}

func degrade(prev, next *oracle.Fault) *oracle.Fault {
	if prev != nil {
		next.Pages = prev.Pages
	}
	next.Pages++
	return next
}

// fetchPage requests one page and returns the display address of every
// listing on it, empty where a listing carries none.
func (c *Client) fetchPage(ctx context.Context, query *models.PropertyQuery, minPrice, maxPrice, page int) ([]string, error) {
	body, err := c.buildBody(query, minPrice, maxPrice, page)
	if err != nil {
		return nil, &oracle.Fault{Kind: oracle.FaultMalformed, Page: page, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL, body)
	if err != nil {
		return nil, &oracle.Fault{Kind: oracle.FaultConnection, Page: page, Err: err}
	}
	req.Header.Set("accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("priority", "u=1, i")
	if c.endpoint.Origin != "" {
		req.Header.Set("Origin", c.endpoint.Origin)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &oracle.Fault{Kind: classify(ctx, err), Page: page, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &oracle.Fault{Kind: oracle.FaultStatus, Page: page, StatusCode: resp.StatusCode}
	}

	var decoded searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&decoded); err != nil {
		return nil, &oracle.Fault{Kind: oracle.FaultMalformed, Page: page, Err: fmt.Errorf("decode response: %w", err)}
	}

	listings, err := decoded.listings()
	if err != nil {
		return nil, &oracle.Fault{Kind: oracle.FaultMalformed, Page: page, Err: err}
	}
	addresses := make([]string, len(listings))
	for i, l := range listings {
		addresses[i] = l.displayAddress()
	}
	return addresses, nil
}

func (c *Client) buildBody(query *models.PropertyQuery, minPrice, maxPrice, page int) ([]byte, error) {
	params := searchParams{
		Price:            minAndMax{Typename: "MinAndMaxFilter", Min: minPrice, Max: maxPrice},
		Bathrooms:        optionalCount(query.Filters.Bathrooms),
		Bedrooms:         optionalCount(query.Filters.Bedrooms),
		CarSpaces:        optionalCount(query.Filters.Carspaces),
		PropertyFeatures: []string{},
		PropertyTypes:    []string{},
		LocationSearchContext: locationSearchContext{
			Typename:                  "SuburbsSearch",
			SearchLocations:           []searchLocation{{ID: query.Suburb.ID}},
			IncludeSurroundingSuburbs: true,
		},
		Paging:     paging{Skip: page * PageSize, Take: PageSize},
		Context:    "location",
		SearchMode: "sold",
		SortBy:     "soldHomesForYou",
		Typename:   "SearchParams",
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	var rb requestBody
	rb.OperationName = c.endpoint.OperationName
	rb.Variables.Query = "searchParamsJSON=" + string(paramsJSON)
	rb.Extensions.PersistedQuery = persistedQuery{Version: 1, SHA256Hash: c.endpoint.QueryHash}
	return json.Marshal(rb)
}

func classify(ctx context.Context, err error) oracle.FaultKind {
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return oracle.FaultCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return oracle.FaultTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return oracle.FaultTimeout
	}
	return oracle.FaultConnection
}
