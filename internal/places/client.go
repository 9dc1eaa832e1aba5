package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	PlaceID        string `json:"place_id"`
	Label          string `json:"label"`
	SecondaryLabel string `json:"secondary_label,omitempty"`
}

// Place is the detail record behind a suggestion.
type Place struct {
	Location models.Coord `json:"location"`
	Name     string       `json:"name"`
	Address  string       `json:"address"`
}

// Client talks to a Places/Geocoding HTTP API. The API is rate-limited
// and network-fallible: failures degrade to empty results with a log
// line instead of propagating into the search flow.
type Client struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
	Logger   *slog.Logger
}

func NewClient(endpoint, apiKey string, logger *slog.Logger) *Client {
	return &Client{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{Timeout: 2 * time.Second}, Logger: logger}
}

func (c *Client) Autocomplete(ctx context.Context, queryText string) []Suggestion {
	if queryText == "" {
		return nil
	}
	var out struct {
		Predictions []struct {
			PlaceID       string `json:"place_id"`
			Description   string `json:"description"`
			StructuredFmt struct {
				Main      string `json:"main_text"`
				Secondary string `json:"secondary_text"`
			} `json:"structured_formatting"`
		} `json:"predictions"`
	}
	q := url.Values{"input": {queryText}, "key": {c.APIKey}}
	if err := c.getJSON(ctx, "/autocomplete/json", q, &out); err != nil {
		c.Logger.Warn("place autocomplete unavailable", "error", err)
		return nil
	}
	res := make([]Suggestion, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		label := p.StructuredFmt.Main
		if label == "" {
			label = p.Description
		}
		res = append(res, Suggestion{PlaceID: p.PlaceID, Label: label, SecondaryLabel: p.StructuredFmt.Secondary})
	}
	return res
}

func (c *Client) Details(ctx context.Context, placeID string) (Place, error) {
	var out struct {
		Result struct {
			Name     string `json:"name"`
			Address  string `json:"formatted_address"`
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"result"`
		Status string `json:"status"`
	}
	q := url.Values{"place_id": {placeID}, "key": {c.APIKey}}
	if err := c.getJSON(ctx, "/details/json", q, &out); err != nil {
		return Place{}, err
	}
	if out.Status != "OK" {
		return Place{}, fmt.Errorf("place details status %s", out.Status)
	}
	return Place{
		Location: models.Coord{Lat: out.Result.Geometry.Location.Lat, Lon: out.Result.Geometry.Location.Lng},
		Name:     out.Result.Name,
		Address:  out.Result.Address,
	}, nil
}

// ReverseGeocode returns a human-readable address, empty on failure.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	var out struct {
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"results"`
	}
	q := url.Values{"latlng": {fmt.Sprintf("%.6f,%.6f", lat, lon)}, "key": {c.APIKey}}
	if err := c.getJSON(ctx, "/geocode/json", q, &out); err != nil {
		c.Logger.Warn("reverse geocode unavailable", "error", err)
		return ""
	}
	if len(out.Results) == 0 {
		return ""
	}
	return out.Results[0].FormattedAddress
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
