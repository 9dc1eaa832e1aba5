package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Conditions is the small summary the home surface renders.
type Conditions struct {
	TempCelsius float64 `json:"temp_celsius"`
	ConditionID int     `json:"condition_id"`
	Label       string  `json:"label"`
}

// Client fetches current conditions from an OpenWeather-style API.
type Client struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{Timeout: 2 * time.Second}}
}

func (c *Client) Current(ctx context.Context, lat, lon float64) (Conditions, error) {
	url := fmt.Sprintf("%s/data/2.5/weather?lat=%.4f&lon=%.4f&units=metric&appid=%s", c.Endpoint, lat, lon, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Conditions{}, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return Conditions{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather api status %d", resp.StatusCode)
	}
	var out struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			ID   int    `json:"id"`
			Main string `json:"main"`
		} `json:"weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Conditions{}, err
	}
	cond := Conditions{TempCelsius: out.Main.Temp}
	if len(out.Weather) > 0 {
		cond.ConditionID = out.Weather[0].ID
		cond.Label = out.Weather[0].Main
	}
	return cond, nil
}
