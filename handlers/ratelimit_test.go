package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ilask/weather-data/models"
)

func TestCheckRateLimitMissingHeader(t *testing.T) {
	app, _, db := newTestApp(t)

	req := jsonRequest(t, http.MethodGet, "/api/rate-limit-check", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The missing header is rejected before any backend work.
	var count int64
	require.NoError(t, db.Model(&models.APIAccessLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCheckRateLimitUnknownClient(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := jsonRequest(t, http.MethodGet, "/api/rate-limit-check", nil)
	req.Header.Set("x-client-id", "nobody")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckRateLimitAllowed(t *testing.T) {
	app, _, db := newTestApp(t)
	require.NoError(t, db.Create(&models.RateLimitConfig{
		ClientID:          "client-a",
		RequestsPerMinute: 60,
	}).Error)

	req := jsonRequest(t, http.MethodGet, "/api/rate-limit-check", nil)
	req.Header.Set("x-client-id", "client-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, true, body["allowed"])
	require.EqualValues(t, 60, body["remaining"])

	var count int64
	require.NoError(t, db.Model(&models.APIAccessLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCheckRateLimitBlockedClient(t *testing.T) {
	app, _, db := newTestApp(t)
	require.NoError(t, db.Create(&models.RateLimitConfig{
		ClientID:          "client-a",
		RequestsPerMinute: 60,
		IsBlocked:         true,
	}).Error)

	req := jsonRequest(t, http.MethodGet, "/api/rate-limit-check", nil)
	req.Header.Set("x-client-id", "client-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Contains(t, body["error"], "blocked")
}

func TestCheckRateLimitExceeded(t *testing.T) {
	app, _, db := newTestApp(t)
	require.NoError(t, db.Create(&models.RateLimitConfig{
		ClientID:          "client-a",
		RequestsPerMinute: 2,
	}).Error)

	for i := 0; i < 2; i++ {
		req := jsonRequest(t, http.MethodGet, "/api/rate-limit-check", nil)
		req.Header.Set("x-client-id", "client-a")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	req := jsonRequest(t, http.MethodGet, "/api/rate-limit-check", nil)
	req.Header.Set("x-client-id", "client-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// The denied request is not logged.
	var count int64
	require.NoError(t, db.Model(&models.APIAccessLog{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestUpdateRateLimitValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	t.Run("missing header", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPut, "/api/rate-limit-check",
			map[string]interface{}{"requests_per_minute": 10}))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing limit", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPut, "/api/rate-limit-check", map[string]interface{}{})
		req.Header.Set("x-client-id", "client-a")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("negative limit", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPut, "/api/rate-limit-check",
			map[string]interface{}{"requests_per_minute": -5})
		req.Header.Set("x-client-id", "client-a")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateRateLimitRoundTrip(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := jsonRequest(t, http.MethodPut, "/api/rate-limit-check",
		map[string]interface{}{"requests_per_minute": 90})
	req.Header.Set("x-client-id", "client-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 90, body["updated_limit"])

	get := jsonRequest(t, http.MethodGet, "/api/rate-limit-config", nil)
	get.Header.Set("x-client-id", "client-a")
	get.Header.Set("Authorization", authToken(t))
	resp, err = app.Test(get)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	config := decodeBody(t, resp)
	require.EqualValues(t, 90, config["requests_per_minute"])
}
