// Package classifier is the thin adapter to the external content-safety
// service. The verdict it returns is stored as opaque metadata; nothing in
// the engine interprets it beyond the flagged bit.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	config "github.com/lexora-app/moderation-server/internal/config"
	"github.com/lexora-app/moderation-server/internal/httpclient"
	"github.com/lexora-app/moderation-server/internal/model"
)

// Classifier produces a safety verdict for one piece of content.
type Classifier interface {
	Classify(ctx context.Context, content string) (*model.Verdict, error)
}

type client struct {
	httpClient *http.Client
	url        string
	token      string
}

var _ Classifier = (*client)(nil)

// New builds the HTTP classifier client, or nil when no endpoint is
// configured (content routes then skip automatic scoring).
func New(cfg *config.Config) (Classifier, error) {
	if cfg.Classifier.URL == "" {
		return nil, nil
	}

	httpClient, err := httpclient.New(&cfg.Proxy)
	if err != nil {
		return nil, err
	}

	httpClient.Timeout = cfg.Classifier.Timeout

	return &client{
		httpClient: httpClient,
		url:        cfg.Classifier.URL,
		token:      cfg.Classifier.Token,
	}, nil
}

func (c *client) Classify(ctx context.Context, content string) (*model.Verdict, error) {
	body, err := json.Marshal(struct {
		Content string `json:"content"`
	}{Content: content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var verdict model.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, err
	}

	return &verdict, nil
}
