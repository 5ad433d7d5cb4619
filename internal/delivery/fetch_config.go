package delivery

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchConfig GETs {scheme}://{configServer}/c and decodes the event on/off
// map. A body that is not a JSON object is reported as ErrMalformedConfig.
func (c *Client) FetchConfig(ctx context.Context, request ConfigRequest) (ServerConfig, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/json").
		SetQueryParams(map[string]string{
			"publisherId": request.PublisherID,
			"host":        request.Host,
		}).
		Get(c.url(request.ConfigServer, "c"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch publisher config: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d from config endpoint", ErrUnexpectedStatus, resp.StatusCode())
	}

	var cfg ServerConfig
	if err = json.Unmarshal(resp.Bytes(), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedConfig)
	}

	return cfg, nil
}
