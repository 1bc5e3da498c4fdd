package notify

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// BarkConfig is the `arg` map for a `bark`-type dove entry: `{key, group?}`.
type BarkConfig struct {
	Key   string `mapstructure:"key" validate:"required"`
	Group string `mapstructure:"group"`
}

// Bark posts to api.day.app.
type Bark struct {
	client       *resty.Client
	url          string
	defaultGroup string
}

func NewBark(client *resty.Client, cfg BarkConfig) *Bark {
	return &Bark{
		client:       client,
		url:          fmt.Sprintf("https://api.day.app/%s", cfg.Key),
		defaultGroup: cfg.Group,
	}
}

func (b *Bark) Publish(message map[string]any) error {
	data := map[string]string{"body": stringField(message, "msg")}
	if title, ok := message["title"]; ok {
		data["title"] = fmt.Sprint(title)
	}
	if group, ok := message["group"]; ok {
		data["group"] = fmt.Sprint(group)
	} else if b.defaultGroup != "" {
		data["group"] = b.defaultGroup
	}

	resp, err := b.client.R().SetFormData(data).Post(b.url)
	if err != nil {
		return fmt.Errorf("post to %s: %w", b.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("post to %s with data=%v failed with status_code=%d", b.url, data, resp.StatusCode())
	}
	return nil
}

func stringField(message map[string]any, key string) string {
	v, ok := message[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}
