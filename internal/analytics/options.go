package analytics

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/katatrina/roxot-collector/internal/delivery"
)

const (
	DefaultEventServer  = "pa.rxthdr.com/v3"
	DefaultConfigServer = "pa.rxthdr.com/v3"
)

// InitOptions is the "options" object a page enables analytics with.
type InitOptions struct {
	PublisherID  string   `json:"publisherId"`
	PublisherIDs []string `json:"publisherIds"`
	AdUnits      []string `json:"adUnits"`
	Server       string   `json:"server"`
	ConfigServer string   `json:"configServer"`
	Host         string   `json:"host"`
}

// Options are the effective settings of an enabled session. They are echoed
// in every delivered record.
type Options struct {
	Options      map[string]any        `json:"options"`
	PublisherID  string                `json:"publisherId"`
	AdUnits      []string              `json:"adUnits"`
	Server       string                `json:"server"`
	ConfigServer string                `json:"configServer"`
	UtmTagData   map[string]string     `json:"utmTagData"`
	Host         string                `json:"host"`
	Device       string                `json:"device"`
	ServerConfig delivery.ServerConfig `json:"serverConfig,omitempty"`
}

func (o Options) Clone() Options {
	out := o
	if o.Options != nil {
		// raw options only hold decoded JSON, so a round trip is a deep copy
		raw, err := json.Marshal(o.Options)
		if err == nil {
			_ = json.Unmarshal(raw, &out.Options)
		}
	}
	out.AdUnits = append([]string(nil), o.AdUnits...)
	if o.UtmTagData != nil {
		out.UtmTagData = make(map[string]string, len(o.UtmTagData))
		for k, v := range o.UtmTagData {
			out.UtmTagData[k] = v
		}
	}
	out.ServerConfig = o.ServerConfig.Clone()
	return out
}

func (o Options) supportsAdUnit(code string) bool {
	if len(o.AdUnits) == 0 {
		return true
	}
	for _, adUnit := range o.AdUnits {
		if adUnit == code {
			return true
		}
	}
	return false
}

func parseInitOptions(raw json.RawMessage) (InitOptions, map[string]any, error) {
	var (
		initOpts InitOptions
		verbatim map[string]any
	)
	if len(raw) == 0 {
		return initOpts, nil, fmt.Errorf("%w: options are required", ErrInvalidOptions)
	}
	if err := json.Unmarshal(raw, &initOpts); err != nil {
		return initOpts, nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := json.Unmarshal(raw, &verbatim); err != nil {
		return initOpts, nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return initOpts, verbatim, nil
}

func (o InitOptions) publisherID() string {
	if o.PublisherID != "" {
		return o.PublisherID
	}
	if len(o.PublisherIDs) > 0 {
		return o.PublisherIDs[0]
	}
	return ""
}

func hostname(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
