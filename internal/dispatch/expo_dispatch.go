package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

// DefaultExpoEndpoint is the Expo push gateway.
const DefaultExpoEndpoint = "https://exp.host/--/api/v2/push/send"

// ExpoDispatcher posts push messages to an Expo-style push endpoint.
// Fire-and-forget from the caller's perspective; no delivery receipt
// is consumed.
type ExpoDispatcher struct {
	Endpoint string
	Client   *http.Client
}

func NewExpoDispatcher(endpoint string) *ExpoDispatcher {
	if endpoint == "" {
		endpoint = DefaultExpoEndpoint
	}
	return &ExpoDispatcher{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (e *ExpoDispatcher) Send(ctx context.Context, token string, n models.Notice) error {
	body := map[string]interface{}{
		"to":    token,
		"sound": "default",
		"title": n.Title,
		"body":  n.Body,
		"data":  n.Data,
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := e.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
