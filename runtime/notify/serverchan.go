package notify

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ServerChanConfig is the `arg` map for a `serverchan`-type dove entry:
// `{key, channel?}`.
type ServerChanConfig struct {
	Key     string `mapstructure:"key" validate:"required"`
	Channel string `mapstructure:"channel"`
}

// ServerChan posts to sctapi.ftqq.com.
type ServerChan struct {
	client         *resty.Client
	url            string
	defaultChannel string
}

func NewServerChan(client *resty.Client, cfg ServerChanConfig) *ServerChan {
	return &ServerChan{
		client:         client,
		url:            fmt.Sprintf("https://sctapi.ftqq.com/%s.send", cfg.Key),
		defaultChannel: cfg.Channel,
	}
}

func (s *ServerChan) Publish(message map[string]any) error {
	data := map[string]string{"desp": stringField(message, "msg")}
	if title, ok := message["title"]; ok {
		data["title"] = fmt.Sprint(title)
	}
	if short, ok := message["short"]; ok {
		data["short"] = fmt.Sprint(short)
	}
	if channel, ok := message["channel"]; ok {
		data["channel"] = fmt.Sprint(channel)
	} else if s.defaultChannel != "" {
		data["channel"] = s.defaultChannel
	}

	resp, err := s.client.R().SetFormData(data).Post(s.url)
	if err != nil {
		return fmt.Errorf("post to %s: %w", s.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("post to %s with data=%v failed with status_code=%d", s.url, data, resp.StatusCode())
	}
	return nil
}
