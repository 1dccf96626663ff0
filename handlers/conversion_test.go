package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartConversionValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	t.Run("missing data", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/data-conversion", map[string]interface{}{
			"rules": map[string]string{"temperature": "celsius_to_fahrenheit"},
		})
		req.Header.Set("Authorization", authToken(t))
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown rule", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/data-conversion", map[string]interface{}{
			"data":  []map[string]float64{{"temperature": 20}},
			"rules": map[string]string{"temperature": "kelvin_to_celsius"},
		})
		req.Header.Set("Authorization", authToken(t))
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		require.Equal(t, "invalid conversion rule", body["error"])
	})
}

func TestConversionEndToEnd(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := jsonRequest(t, http.MethodPost, "/api/data-conversion", map[string]interface{}{
		"data":  []map[string]float64{{"temperature": 100}},
		"rules": map[string]string{"temperature": "celsius_to_fahrenheit"},
	})
	req.Header.Set("Authorization", authToken(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	jobID, ok := body["jobId"].(string)
	require.True(t, ok)
	require.Equal(t, "processing", body["status"])

	require.Eventually(t, func() bool {
		get := jsonRequest(t, http.MethodGet, "/api/data-conversion?jobId="+jobID, nil)
		get.Header.Set("Authorization", authToken(t))
		resp, err := app.Test(get)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		return decodeBody(t, resp)["status"] == "completed"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGetConversionJobNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := jsonRequest(t, http.MethodGet, "/api/data-conversion?jobId=missing", nil)
	req.Header.Set("Authorization", authToken(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
