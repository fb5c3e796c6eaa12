package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	placesapi "google.golang.org/api/places/v1"
)

const placesV1FieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.rating"

// PlacesV1Client searches through the Places API (New).
type PlacesV1Client struct {
	service *placesapi.Service
}

// NewPlacesV1Client builds a Places API (New) client authenticated with apiKey.
// Extra options (endpoint, HTTP client) are appended after the key.
func NewPlacesV1Client(ctx context.Context, apiKey string, opts ...option.ClientOption) (*PlacesV1Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := placesapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create places service: %w", err)
	}
	return &PlacesV1Client{service: svc}, nil
}

// Search runs a SearchText call and maps the response onto RawPlace records.
func (c *PlacesV1Client) Search(ctx context.Context, query string) ([]RawPlace, error) {
	resp, err := c.service.Places.SearchText(&placesapi.GoogleMapsPlacesV1SearchTextRequest{
		TextQuery: query,
	}).Fields(googleapi.Field(placesV1FieldMask)).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			err = &ProviderError{Status: fmt.Sprintf("%d %s", apiErr.Code, http.StatusText(apiErr.Code)), Message: apiErr.Message}
		}
		return nil, fmt.Errorf("places search text: %w", err)
	}

	results := make([]RawPlace, 0, len(resp.Places))
	for _, p := range resp.Places {
		if p == nil {
			continue
		}
		results = append(results, fromPlacesV1(p))
	}
	return results, nil
}

func fromPlacesV1(p *placesapi.GoogleMapsPlacesV1Place) RawPlace {
	var raw RawPlace
	if p.Id != "" {
		id := p.Id
		raw.PlaceID = &id
	}
	if p.DisplayName != nil {
		name := p.DisplayName.Text
		raw.Name = &name
	}
	if p.FormattedAddress != "" {
		addr := p.FormattedAddress
		raw.FormattedAddress = &addr
	}
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		raw.Geometry = &Geometry{Location: &LatLng{Lat: &lat, Lng: &lng}}
	}
	if p.Rating != 0 {
		rating := p.Rating
		raw.Rating = &rating
	}
	return raw
}

var _ Searcher = (*PlacesV1Client)(nil)
