package providers

import (
	"fmt"
	"time"

	"github.com/Data-Cubed-CE/carter-api-integration/internal/config"
	"github.com/Data-Cubed-CE/carter-api-integration/internal/secrets"
)

// BuildRegistry constructs one adapter per configured provider, in declaration
// order. Unknown names are a configuration error; an empty result is fatal.
func BuildRegistry(cfgs []config.ProviderConfig, creds secrets.Source, timeout time.Duration) ([]Adapter, error) {
	var adapters []Adapter
	for _, pc := range cfgs {
		switch pc.Name {
		case "rate_hawk":
			adapters = append(adapters, NewRateHawk(pc.BaseURL, creds, timeout))
		case "goglobal":
			adapters = append(adapters, NewGoGlobal(pc.BaseURL, creds, timeout))
		case "tbo":
			adapters = append(adapters, NewTBO(pc.BaseURL, creds, timeout, pc.CallsPerMinute))
		default:
			return nil, fmt.Errorf("unknown provider %q", pc.Name)
		}
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no provider adapters could be built")
	}
	return adapters, nil
}
