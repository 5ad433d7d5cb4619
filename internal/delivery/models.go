package delivery

import (
	"strconv"
)

// EventRequest is one output record ready to be POSTed. Body is the JSON
// document {"event","eventName","options","data"}.
type EventRequest struct {
	Server      string `json:"server"`
	EventType   string `json:"event_type"`
	PublisherID string `json:"publisher_id"`
	Host        string `json:"host"`
	Body        []byte `json:"body"`
}

// ConfigRequest identifies the publisher whose config is fetched.
type ConfigRequest struct {
	ConfigServer string
	PublisherID  string
	Host         string
}

// ServerConfig maps event codes to 1 (send) or 0 (skip). It is kept verbatim
// from the config endpoint, so values may be numbers, strings or booleans.
type ServerConfig map[string]any

// IsErrorKey marks a config synthesised after a failed fetch.
const IsErrorKey = "isError"

// Enabled reports whether records with the given event code should be sent.
// Absent or zero-valued codes are off.
func (c ServerConfig) Enabled(code string) bool {
	value, ok := c[code]
	if !ok {
		return false
	}

	switch v := value.(type) {
	case float64:
		return v != 0
	case int:
		return v != 0
	case bool:
		return v
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return err == nil && n != 0
	default:
		return false
	}
}

// DefaultServerConfig enables the given codes and flags the config as a
// fallback.
func DefaultServerConfig(codes ...string) ServerConfig {
	cfg := make(ServerConfig, len(codes)+1)
	for _, code := range codes {
		cfg[code] = 1
	}
	cfg[IsErrorKey] = 1
	return cfg
}

// Clone returns a shallow copy; values are scalars.
func (c ServerConfig) Clone() ServerConfig {
	if c == nil {
		return nil
	}
	out := make(ServerConfig, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
