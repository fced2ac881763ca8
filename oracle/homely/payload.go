package homely

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type minAndMax struct {
	Typename string `json:"__typename"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
}

type searchLocation struct {
	ID int `json:"id"`
}

type locationSearchContext struct {
	Typename                  string           `json:"__typename"`
	SearchLocations           []searchLocation `json:"searchLocations"`
	IncludeSurroundingSuburbs bool             `json:"includeSurroundingSuburbs"`
}

type paging struct {
	Skip int `json:"skip"`
	Take int `json:"take"`
}

// searchParams mirrors the SearchParams input the persisted query expects.
// Field order matches what the web client sends.
type searchParams struct {
	Price                 minAndMax             `json:"price"`
	Bathrooms             *int                  `json:"bathrooms"`
	Bedrooms              *int                  `json:"bedrooms"`
	CarSpaces             *int                  `json:"carSpaces"`
	PropertyFeatures      []string              `json:"propertyFeatures"`
	PropertyTypes         []string              `json:"propertyTypes"`
	Inspection            any                   `json:"inspection"`
	Auction               any                   `json:"auction"`
	FrontageSize          any                   `json:"frontageSize"`
	LandSize              any                   `json:"landSize"`
	IsUnderOffer          any                   `json:"isUnderOffer"`
	LocationSearchContext locationSearchContext `json:"locationSearchContext"`
	Paging                paging                `json:"paging"`
	Context               string                `json:"context"`
	SearchMode            string                `json:"searchMode"`
	SortBy                string                `json:"sortBy"`
	Typename              string                `json:"__typename"`
}

type persistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

type requestBody struct {
	OperationName string `json:"operationName"`
	Variables     struct {
		Query string `json:"query"`
	} `json:"variables"`
	Extensions struct {
		PersistedQuery persistedQuery `json:"persistedQuery"`
	} `json:"extensions"`
}

// searchResponse accepts both result shapes the endpoint can return.
type searchResponse struct {
	Data *struct {
		ListingSearch *struct {
			Listings []listing `json:"listings"`
		} `json:"listingSearch"`
		ListingMapMarkerSearch *struct {
			Results []listing `json:"results"`
		} `json:"listingMapMarkerSearch"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// listings returns the page's listings. A body carrying GraphQL errors, or
// no listing array at all, is an error: only a present empty array means
// the results are exhausted.
func (r *searchResponse) listings() ([]listing, error) {
	if len(r.Errors) > 0 {
		msgs := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}
	if r.Data == nil {
		return nil, errors.New("response has no data")
	}
	switch {
	case r.Data.ListingSearch != nil && r.Data.ListingSearch.Listings != nil:
		return r.Data.ListingSearch.Listings, nil
	case r.Data.ListingMapMarkerSearch != nil && r.Data.ListingMapMarkerSearch.Results != nil:
		return r.Data.ListingMapMarkerSearch.Results, nil
	default:
		return nil, errors.New("response has no listing results")
	}
}

type listing struct {
	Location *struct {
		Address flexAddress `json:"address"`
	} `json:"location"`
	Address flexAddress `json:"address"`
}

// displayAddress prefers the nested location address.
func (l listing) displayAddress() string {
	if l.Location != nil && l.Location.Address != "" {
		return string(l.Location.Address)
	}
	return string(l.Address)
}

// flexAddress decodes either a plain string or an object with a display field.
type flexAddress string

func (a *flexAddress) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = flexAddress(s)
	case '{':
		var obj struct {
			Display string `json:"display"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*a = flexAddress(obj.Display)
	}
	return nil
}

func optionalCount(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
