package places

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
)

// NewFactory returns the Factory for the named provider.
func NewFactory(provider string, client *http.Client, baseURL string) (Factory, error) {
	switch provider {
	case "", ProviderTextSearch:
		return func(apiKey string) (Searcher, error) {
			c, err := NewTextSearchClient(client, baseURL, apiKey)
			if err != nil {
				return nil, err
			}
			return c, nil
		}, nil
	case ProviderPlacesV1:
		return func(apiKey string) (Searcher, error) {
			// option.WithHTTPClient would bypass the API key transport, so only the endpoint is overridden.
			var opts []option.ClientOption
			if baseURL != "" && baseURL != DefaultBaseURL {
				opts = append(opts, option.WithEndpoint(baseURL))
			}
			return NewPlacesV1Client(context.Background(), apiKey, opts...)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported places provider %q", provider)
	}
}
