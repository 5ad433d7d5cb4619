package delivery

import (
	"context"
	"fmt"
)

// SendEvent POSTs one record to {scheme}://{server}/{eventType}.
func (c *Client) SendEvent(ctx context.Context, request EventRequest) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetQueryParams(map[string]string{
			"publisherId": request.PublisherID,
			"host":        request.Host,
		}).
		SetBody(request.Body).
		Post(c.url(request.Server, request.EventType))
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", request.EventType, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: %d from %s event endpoint", ErrUnexpectedStatus, resp.StatusCode(), request.EventType)
	}

	return nil
}
