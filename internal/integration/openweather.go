// Package integration handles external service interactions
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/monsoonlab/india-weather-collector/internal/entities"
)

// OpenWeatherClient fetches multi-day forecasts from the OpenWeatherMap API
type OpenWeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenWeatherClient creates a new OpenWeatherMap client. An empty baseURL
// selects the production API endpoint.
func NewOpenWeatherClient(apiKey string, baseURL string) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// forecastResponse mirrors the subset of the OpenWeatherMap 5-day/3-hour
// forecast payload the collector consumes. Required fields decode through
// pointers so their absence is detectable after unmarshalling.
type forecastResponse struct {
	List []forecastEntry `json:"list"`
}

type forecastEntry struct {
	DtTxt *string `json:"dt_txt"`
	Main  *struct {
		Temp     *float64 `json:"temp"`
		Humidity *int     `json:"humidity"`
		Pressure *int     `json:"pressure"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Visibility *int `json:"visibility"`
	Rain       *struct {
		ThreeHour *float64 `json:"3h"`
	} `json:"rain"`
	Clouds *struct {
		All *int `json:"all"`
	} `json:"clouds"`
	Weather []struct {
		Icon        string `json:"icon"`
		Description string `json:"description"`
	} `json:"weather"`
}

// FetchForecast retrieves the forecast for an OpenWeatherMap city id and
// flattens it into one ForecastPoint per list entry, preserving entry order.
// Any transport error, non-200 status or malformed entry fails the whole
// city fetch; callers are expected to skip the city and continue.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, cityID string) (entities.ForecastTable, error) {
	endpoint := fmt.Sprintf("%s/forecast", c.baseURL)
	params := url.Values{}
	params.Add("id", cityID)
	params.Add("appid", c.apiKey)
	params.Add("units", "metric")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error fetching forecast for city %s: %v", cityID, err)
		return nil, fmt.Errorf("failed to fetch forecast: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if res.StatusCode != http.StatusOK {
		log.Printf("Received unexpected status code for city %s: %d %s", cityID, res.StatusCode, res.Status)
		return nil, fmt.Errorf("unexpected status code %d: %s", res.StatusCode, string(body))
	}

	var response forecastResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	table := make(entities.ForecastTable, 0, len(response.List))
	for i, item := range response.List {
		point, err := item.toPoint()
		if err != nil {
			// A single malformed entry aborts the entire city fetch rather
			// than dropping the row, so a partial response never persists.
			return nil, fmt.Errorf("malformed forecast entry %d: %v", i, err)
		}
		table = append(table, point)
	}

	log.Printf("Parsed %d forecast entries for city %s", len(table), cityID)
	return table, nil
}

// toPoint converts a raw forecast entry into a ForecastPoint, validating
// that every required field was present in the payload. Visibility and
// rainfall are optional and default to nil and 0 respectively.
func (e forecastEntry) toPoint() (entities.ForecastPoint, error) {
	switch {
	case e.DtTxt == nil:
		return entities.ForecastPoint{}, fmt.Errorf("missing dt_txt")
	case e.Main == nil || e.Main.Temp == nil:
		return entities.ForecastPoint{}, fmt.Errorf("missing main.temp")
	case e.Main.Humidity == nil:
		return entities.ForecastPoint{}, fmt.Errorf("missing main.humidity")
	case e.Main.Pressure == nil:
		return entities.ForecastPoint{}, fmt.Errorf("missing main.pressure")
	case e.Wind == nil || e.Wind.Speed == nil:
		return entities.ForecastPoint{}, fmt.Errorf("missing wind.speed")
	case e.Clouds == nil || e.Clouds.All == nil:
		return entities.ForecastPoint{}, fmt.Errorf("missing clouds.all")
	case len(e.Weather) == 0:
		return entities.ForecastPoint{}, fmt.Errorf("missing weather conditions")
	}

	timestamp, err := time.Parse(entities.TimestampLayout, *e.DtTxt)
	if err != nil {
		return entities.ForecastPoint{}, fmt.Errorf("invalid dt_txt %q: %v", *e.DtTxt, err)
	}

	rainfall := 0.0
	if e.Rain != nil && e.Rain.ThreeHour != nil {
		rainfall = *e.Rain.ThreeHour
	}

	return entities.ForecastPoint{
		Timestamp:   timestamp,
		Temperature: *e.Main.Temp,
		Humidity:    *e.Main.Humidity,
		WindSpeed:   *e.Wind.Speed,
		Pressure:    *e.Main.Pressure,
		Visibility:  e.Visibility,
		Rainfall:    rainfall,
		CloudCover:  *e.Clouds.All,
		Icon:        e.Weather[0].Icon,
		Description: e.Weather[0].Description,
	}, nil
}
