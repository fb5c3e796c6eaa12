package places

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"googlemaps.github.io/maps"
)

// DefaultBaseURL is the Google Maps web service host.
const DefaultBaseURL = "https://maps.googleapis.com"

// TextSearchClient runs legacy Places Text Search calls through the Maps web service client.
type TextSearchClient struct {
	maps *maps.Client
}

// NewTextSearchClient builds a text search client. A nil client gets a 10 second timeout.
func NewTextSearchClient(client *http.Client, baseURL, apiKey string) (*TextSearchClient, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	opts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(client),
	}
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" && baseURL != DefaultBaseURL {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}

	mc, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &TextSearchClient{maps: mc}, nil
}

// Search runs a text search for query and returns the first page of results.
// ZERO_RESULTS is an empty slice; any other non-OK status is an error.
func (c *TextSearchClient) Search(ctx context.Context, query string) ([]RawPlace, error) {
	resp, err := c.maps.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("places text search: %w", err)
	}

	results := make([]RawPlace, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, fromSearchResult(r))
	}
	return results, nil
}

// fromSearchResult keeps absent identifiers nil so Normalize can apply its id fallback.
func fromSearchResult(r maps.PlacesSearchResult) RawPlace {
	var raw RawPlace
	if r.PlaceID != "" {
		id := r.PlaceID
		raw.PlaceID = &id
	}
	if r.Name != "" {
		name := r.Name
		raw.Name = &name
	}
	if r.FormattedAddress != "" {
		addr := r.FormattedAddress
		raw.FormattedAddress = &addr
	}
	if loc := r.Geometry.Location; loc.Lat != 0 || loc.Lng != 0 {
		lat, lng := loc.Lat, loc.Lng
		raw.Geometry = &Geometry{Location: &LatLng{Lat: &lat, Lng: &lng}}
	}
	if r.Rating != 0 {
		// maps decodes ratings as float32; round-trip through the shortest decimal form so 4.3 stays 4.3.
		rating, _ := strconv.ParseFloat(strconv.FormatFloat(float64(r.Rating), 'f', -1, 32), 64)
		raw.Rating = &rating
	}
	return raw
}

var _ Searcher = (*TextSearchClient)(nil)
