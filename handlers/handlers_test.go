package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/services"
)

var testSecret = []byte("test-secret")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	return db
}

func newTestApp(t *testing.T) (*fiber.App, *Handler, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	h := &Handler{
		DB:                   db,
		JWTSecret:            testSecret,
		DefaultAdminUser:     "admin",
		DefaultAdminPassword: "admin123!",
		Monitor:              services.NewMonitorService(db, nil),
		RateLimiter:          services.NewRateLimitService(db),
		Converter:            services.NewConversionService(db, nil),
		Tasks:                services.NewTaskService(db, ""),
	}

	// The full production route table, so routing behavior (405s, auth
	// placement) cannot drift between main and the tests.
	app := fiber.New()
	RegisterRoutes(app, h)

	return app, h, db
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func authToken(t *testing.T) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + signed
}
