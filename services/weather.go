package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ilask/weather-data/system"
)

const (
	maxFetchRetries = 3
	fetchRetryDelay = time.Second
)

// Plausible bounds for incoming observations. Values outside produce
// warnings, not rejections.
const (
	minValidTemperature = -50
	maxValidTemperature = 50
)

// WeatherArea identifies the region an observation belongs to.
type WeatherArea struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// WeatherData is one observation returned by the upstream weather API.
type WeatherData struct {
	Area        WeatherArea `json:"area"`
	Temperature *float64    `json:"temperature,omitempty"`
	Rainfall    *float64    `json:"rainfall,omitempty"`
	Humidity    *float64    `json:"humidity,omitempty"`
	ObservedAt  string      `json:"observedAt,omitempty"`
}

// WeatherService fetches observations from the upstream weather API.
type WeatherService struct {
	baseURL string
	client  *http.Client
	sleep   func(time.Duration)
}

// NewWeatherService creates a new WeatherService.
func NewWeatherService(baseURL string) *WeatherService {
	return &WeatherService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		sleep:   time.Sleep,
	}
}

// Fetch retrieves the current observation for one area, retrying transient
// upstream failures up to maxFetchRetries times with a fixed delay.
func (s *WeatherService) Fetch(areaCode string) (*WeatherData, error) {
	var lastErr error
	for attempt := 0; attempt <= maxFetchRetries; attempt++ {
		if attempt > 0 {
			s.sleep(fetchRetryDelay)
		}

		data, err := s.fetchOnce(areaCode)
		if err == nil {
			system.RecordUpstreamCall("weather-api", nil)
			return data, nil
		}
		lastErr = err
	}

	system.RecordUpstreamCall("weather-api", lastErr)
	return nil, fmt.Errorf("failed to fetch weather data for area %s: %w", areaCode, lastErr)
}

func (s *WeatherService) fetchOnce(areaCode string) (*WeatherData, error) {
	resp, err := s.client.Get(fmt.Sprintf("%s/weather/%s", s.baseURL, areaCode))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, body)
	}

	var data WeatherData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.Area.Code == "" {
		data.Area.Code = areaCode
	}

	return &data, nil
}

// ValidateWeatherData returns human-readable warnings for implausible values.
func ValidateWeatherData(d *WeatherData) []string {
	var warnings []string

	if d.Temperature != nil && (*d.Temperature < minValidTemperature || *d.Temperature > maxValidTemperature) {
		warnings = append(warnings, fmt.Sprintf(
			"temperature %.1f for area %s is out of the expected range", *d.Temperature, d.Area.Code))
	}
	if d.Rainfall != nil && *d.Rainfall < 0 {
		warnings = append(warnings, fmt.Sprintf(
			"rainfall %.1f for area %s is negative", *d.Rainfall, d.Area.Code))
	}

	return warnings
}
