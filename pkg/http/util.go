package http

import (
	"fmt"
	"net/url"
)

// ParseEndpoint parses an absolute http(s) URL, e.g. a SOAP service endpoint
func ParseEndpoint(rawURL string) (*url.URL, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing endpoint URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("endpoint URL %q must use http or https", rawURL)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("endpoint URL %q has no host", rawURL)
	}
	return parsedURL, nil
}
