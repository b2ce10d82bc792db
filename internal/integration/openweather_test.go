package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockForecastServer creates a test server that serves a fixed JSON response
func mockForecastServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.NotEmpty(t, r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchForecastParsesEntriesInOrder(t *testing.T) {
	body := `{
		"list": [
			{
				"dt_txt": "2024-06-01 12:00:00",
				"main": {"temp": 30.5, "humidity": 40, "pressure": 1008},
				"wind": {"speed": 3.2},
				"visibility": 10000,
				"rain": {"3h": 1.5},
				"clouds": {"all": 10},
				"weather": [{"icon": "01d", "description": "clear sky"}]
			},
			{
				"dt_txt": "2024-06-01 15:00:00",
				"main": {"temp": 32.1, "humidity": 35, "pressure": 1006},
				"wind": {"speed": 4.7},
				"visibility": 8000,
				"rain": {"3h": 0.2},
				"clouds": {"all": 75},
				"weather": [{"icon": "03d", "description": "scattered clouds"}]
			}
		]
	}`
	server := mockForecastServer(t, http.StatusOK, body)

	client := NewOpenWeatherClient("test-key", server.URL)
	table, err := client.FetchForecast(context.Background(), "1273294")
	require.NoError(t, err)
	require.Len(t, table, 2)

	first := table[0]
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, 30.5, first.Temperature)
	assert.Equal(t, 40, first.Humidity)
	assert.Equal(t, 3.2, first.WindSpeed)
	assert.Equal(t, 1008, first.Pressure)
	require.NotNil(t, first.Visibility)
	assert.Equal(t, 10000, *first.Visibility)
	assert.Equal(t, 1.5, first.Rainfall)
	assert.Equal(t, 10, first.CloudCover)
	assert.Equal(t, "01d", first.Icon)
	assert.Equal(t, "clear sky", first.Description)
	assert.Empty(t, first.City, "city tagging happens after fetch")

	second := table[1]
	assert.Equal(t, time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC), second.Timestamp)
	assert.Equal(t, 32.1, second.Temperature)
	assert.Equal(t, "scattered clouds", second.Description)
}

func TestFetchForecastDefaultsOptionalFields(t *testing.T) {
	// No visibility and no rain block at all
	body := `{
		"list": [
			{
				"dt_txt": "2024-06-01 12:00:00",
				"main": {"temp": 30.5, "humidity": 40, "pressure": 1008},
				"wind": {"speed": 3.2},
				"clouds": {"all": 10},
				"weather": [{"icon": "01d", "description": "clear sky"}]
			}
		]
	}`
	server := mockForecastServer(t, http.StatusOK, body)

	client := NewOpenWeatherClient("test-key", server.URL)
	table, err := client.FetchForecast(context.Background(), "1273294")
	require.NoError(t, err)
	require.Len(t, table, 1)

	assert.Nil(t, table[0].Visibility)
	assert.Equal(t, 0.0, table[0].Rainfall)
}

func TestFetchForecastDefaultsRainWithoutThreeHourField(t *testing.T) {
	// Rain block present but without the 3h accumulation
	body := `{
		"list": [
			{
				"dt_txt": "2024-06-01 12:00:00",
				"main": {"temp": 30.5, "humidity": 40, "pressure": 1008},
				"wind": {"speed": 3.2},
				"rain": {},
				"clouds": {"all": 10},
				"weather": [{"icon": "01d", "description": "clear sky"}]
			}
		]
	}`
	server := mockForecastServer(t, http.StatusOK, body)

	client := NewOpenWeatherClient("test-key", server.URL)
	table, err := client.FetchForecast(context.Background(), "1273294")
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, 0.0, table[0].Rainfall)
}

func TestFetchForecastMissingRequiredFieldFailsWholeCity(t *testing.T) {
	// Second entry has no weather conditions; the whole fetch must fail,
	// not just that row.
	body := `{
		"list": [
			{
				"dt_txt": "2024-06-01 12:00:00",
				"main": {"temp": 30.5, "humidity": 40, "pressure": 1008},
				"wind": {"speed": 3.2},
				"clouds": {"all": 10},
				"weather": [{"icon": "01d", "description": "clear sky"}]
			},
			{
				"dt_txt": "2024-06-01 15:00:00",
				"main": {"temp": 32.1, "humidity": 35, "pressure": 1006},
				"wind": {"speed": 4.7},
				"clouds": {"all": 75},
				"weather": []
			}
		]
	}`
	server := mockForecastServer(t, http.StatusOK, body)

	client := NewOpenWeatherClient("test-key", server.URL)
	table, err := client.FetchForecast(context.Background(), "1273294")
	require.Error(t, err)
	assert.Nil(t, table)
	assert.Contains(t, err.Error(), "malformed forecast entry 1")
}

func TestFetchForecastMissingTemperatureFailsWholeCity(t *testing.T) {
	body := `{
		"list": [
			{
				"dt_txt": "2024-06-01 12:00:00",
				"main": {"humidity": 40, "pressure": 1008},
				"wind": {"speed": 3.2},
				"clouds": {"all": 10},
				"weather": [{"icon": "01d", "description": "clear sky"}]
			}
		]
	}`
	server := mockForecastServer(t, http.StatusOK, body)

	client := NewOpenWeatherClient("test-key", server.URL)
	_, err := client.FetchForecast(context.Background(), "1273294")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main.temp")
}

func TestFetchForecastHTTPErrorStatus(t *testing.T) {
	server := mockForecastServer(t, http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`)

	client := NewOpenWeatherClient("bad-key", server.URL)
	_, err := client.FetchForecast(context.Background(), "1273294")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code 401")
}

func TestFetchForecastTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Connection refused from here on

	client := NewOpenWeatherClient("test-key", server.URL)
	_, err := client.FetchForecast(context.Background(), "1273294")
	require.Error(t, err)
}

func TestFetchForecastEmptyList(t *testing.T) {
	server := mockForecastServer(t, http.StatusOK, `{"list": []}`)

	client := NewOpenWeatherClient("test-key", server.URL)
	table, err := client.FetchForecast(context.Background(), "1273294")
	require.NoError(t, err)
	assert.Empty(t, table)
}
