package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPInfoSource fetches connection info from the bridge server.
type HTTPInfoSource struct {
	httpClient *resty.Client
}

func NewHTTPInfoSource(baseURL string) *HTTPInfoSource {
	return &HTTPInfoSource{
		httpClient: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("User-Agent", "voicebridge-softphone/1.0").
			SetTimeout(10 * time.Second),
	}
}

func (s *HTTPInfoSource) ConnectionInfo(ctx context.Context) (*ConnectionInfo, error) {
	var info ConnectionInfo
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/connectionInfo")
	if err != nil {
		return nil, fmt.Errorf("connection info request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("connection info error (%d): %s", resp.StatusCode(), resp.String())
	}
	if info.Token == "" {
		return nil, fmt.Errorf("connection info without token")
	}
	return &info, nil
}
