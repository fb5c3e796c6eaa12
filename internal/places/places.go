// Package places talks to the places-search provider and turns its records into entity.Place values.
package places

import (
	"context"
	"errors"
	"fmt"
)

// Provider names accepted by NewFactory.
const (
	ProviderTextSearch = "textsearch"
	ProviderPlacesV1   = "places_v1"
)

// CredentialEnv is the environment variable holding the provider API key.
const CredentialEnv = "GOOGLE_MAPS_API_KEY"

// ErrMissingCredential is matched by ConfigurationError when the API key is absent.
var ErrMissingCredential = errors.New("missing places api credential")

// ConfigurationError reports a missing or unusable provider credential.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s environment variable is required", e.Key)
}

// Is lets errors.Is match ErrMissingCredential.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrMissingCredential
}

// ProviderError is returned when the provider answers but rejects the request.
type ProviderError struct {
	Status  string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("places provider status %s", e.Status)
	}
	return fmt.Sprintf("places provider status %s: %s", e.Status, e.Message)
}

// LatLng is a coordinate pair as reported by the provider.
type LatLng struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Geometry wraps the provider location.
type Geometry struct {
	Location *LatLng `json:"location"`
}

// RawPlace is one provider result. Every field is optional.
type RawPlace struct {
	PlaceID          *string   `json:"place_id"`
	Name             *string   `json:"name"`
	FormattedAddress *string   `json:"formatted_address"`
	Geometry         *Geometry `json:"geometry"`
	Rating           *float64  `json:"rating"`
}

// Searcher runs one place search and returns a single page of results.
type Searcher interface {
	Search(ctx context.Context, query string) ([]RawPlace, error)
}
