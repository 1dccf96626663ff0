package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

type weatherFetchRequest struct {
	AreaCode  string   `json:"areaCode"`
	AreaCodes []string `json:"areaCodes"`
	Items     []string `json:"items"`
}

// FetchWeather pulls current observations for the requested areas from the
// upstream weather API and stores them.
func (h *Handler) FetchWeather(c *fiber.Ctx) error {
	var req weatherFetchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	codes := req.AreaCodes
	if len(codes) == 0 && req.AreaCode != "" {
		codes = []string{req.AreaCode}
	}
	if len(codes) == 0 || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "required parameters are missing"})
	}

	var (
		results  []*services.WeatherData
		warnings []string
		records  []models.WeatherRecord
	)
	for _, code := range codes {
		data, err := h.Weather.Fetch(code)
		if err != nil {
			services.RecordSystemLog(h.DB, models.LogLevelError,
				fmt.Sprintf("weather fetch failed for area %s", code),
				map[string]string{"error": err.Error()})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		warnings = append(warnings, services.ValidateWeatherData(data)...)

		record := models.WeatherRecord{AreaCode: data.Area.Code}
		if err := record.SetData(data); err != nil {
			system.Error("Failed to encode weather data for area %s: %v", code, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}

		results = append(results, data)
		records = append(records, record)
	}

	if err := h.DB.Create(&records).Error; err != nil {
		services.RecordSystemLog(h.DB, models.LogLevelError, "failed to store weather records",
			map[string]string{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store weather data"})
	}

	services.RecordSystemLog(h.DB, models.LogLevelInfo,
		fmt.Sprintf("weather fetch succeeded: processed %d areas", len(codes)),
		map[string]int{"weather_data_count": len(records)})

	resp := fiber.Map{"success": true, "data": results}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	return c.JSON(resp)
}
