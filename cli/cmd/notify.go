package cmd

import (
	"fmt"

	"github.com/justapithecus/peerdialog/adapter"
	"github.com/justapithecus/peerdialog/adapter/redis"
	"github.com/justapithecus/peerdialog/adapter/webhook"
	"github.com/justapithecus/peerdialog/cli/config"
)

// newAdapter builds the selection event adapter named by nc.Type.
func newAdapter(nc config.NotifyConfig) (adapter.Adapter, error) {
	enc, err := adapter.ParseEncoding(nc.Encoding)
	if err != nil {
		return nil, err
	}

	switch nc.Type {
	case "webhook":
		retries := webhook.DefaultRetries
		if nc.Retries != nil {
			retries = *nc.Retries
		}
		return webhook.New(webhook.Config{
			URL:      nc.URL,
			Headers:  nc.Headers,
			Encoding: enc,
			Timeout:  nc.Timeout.Duration,
			Retries:  retries,
		})
	case "redis":
		retries := redis.DefaultRetries
		if nc.Retries != nil {
			retries = *nc.Retries
		}
		return redis.New(redis.Config{
			URL:      nc.URL,
			Channel:  nc.Channel,
			Encoding: enc,
			Timeout:  nc.Timeout.Duration,
			Retries:  retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q (want webhook or redis)", nc.Type)
	}
}
