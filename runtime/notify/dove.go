package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// ChannelConfig is one entry of a dove config's `doves` list. Name is
// optional at the YAML level: LoadDoveConfig fills in a random one for an
// unnamed entry before validation runs.
type ChannelConfig struct {
	Name    string         `mapstructure:"name"`
	Type    string         `mapstructure:"type" validate:"required,oneof=bark serverchan"`
	Timeout time.Duration  `mapstructure:"timeout" default:"10s"`
	Arg     map[string]any `mapstructure:"arg"`
}

// Dispatcher is one named set of notification channels, called directly
// in-process by the pipeline engine's `publish` processor.
type Dispatcher struct {
	l        *slog.Logger
	channels map[string]Channel
}

// NewDispatcher builds a Dispatcher's channel table from config. Each
// channel gets its own resty client, timed out per its own (defaulted)
// `timeout` field, with the same retry policy across all of them.
func NewDispatcher(l *slog.Logger, configs []ChannelConfig) (*Dispatcher, error) {
	d := &Dispatcher{l: l, channels: make(map[string]Channel, len(configs))}
	for _, cfg := range configs {
		client := resty.New().
			SetTimeout(cfg.Timeout).
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond)

		ch, err := buildChannel(client, cfg)
		if err != nil {
			return nil, fmt.Errorf("dove channel %q: %w", cfg.Name, err)
		}
		d.channels[cfg.Name] = ch
	}
	return d, nil
}

func buildChannel(client *resty.Client, cfg ChannelConfig) (Channel, error) {
	switch cfg.Type {
	case "bark":
		var bc BarkConfig
		if err := decodeArg(cfg.Arg, &bc); err != nil {
			return nil, err
		}
		return NewBark(client, bc), nil
	case "serverchan":
		var sc ServerChanConfig
		if err := decodeArg(cfg.Arg, &sc); err != nil {
			return nil, err
		}
		return NewServerChan(client, sc), nil
	default:
		return nil, fmt.Errorf("%s not found", cfg.Type)
	}
}

// Publish invokes channel.Publish(message) for each requested name, or for
// every channel when names is empty. Every failure is logged and the first
// one is returned; publishing continues to the remaining channels so one bad channel config
// cannot mask the others.
func (d *Dispatcher) Publish(message map[string]any, names []string) error {
	if len(names) == 0 {
		names = make([]string, 0, len(d.channels))
		for name := range d.channels {
			names = append(names, name)
		}
	}

	var firstErr error
	for _, name := range names {
		ch, ok := d.channels[name]
		if !ok {
			d.l.Error("publish: unknown channel", "channel", name)
			if firstErr == nil {
				firstErr = fmt.Errorf("unknown channel %q", name)
			}
			continue
		}
		if err := ch.Publish(message); err != nil {
			d.l.Error("cannot publish", "channel", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
