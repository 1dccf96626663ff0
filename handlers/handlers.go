package handlers

import (
	"gorm.io/gorm"

	"github.com/ilask/weather-data/services"
)

// Handler bundles the services behind the HTTP surface. One instance serves
// the whole app.
type Handler struct {
	DB        *gorm.DB
	JWTSecret []byte

	DefaultAdminUser     string
	DefaultAdminPassword string

	Monitor     *services.MonitorService
	RateLimiter *services.RateLimitService
	Weather     *services.WeatherService
	Backup      *services.BackupService
	Archiver    *services.ArchiveService
	Exporter    *services.ExportService
	Converter   *services.ConversionService
	Quality     *services.QualityService
	Tasks       *services.TaskService
	SysInfo     *services.SysInfoService
}

// NewHandler creates a new Handler.
func NewHandler(
	db *gorm.DB,
	jwtSecret []byte,
	monitor *services.MonitorService,
	rateLimiter *services.RateLimitService,
	weather *services.WeatherService,
	backup *services.BackupService,
	archiver *services.ArchiveService,
	exporter *services.ExportService,
	converter *services.ConversionService,
	quality *services.QualityService,
	tasks *services.TaskService,
	sysInfo *services.SysInfoService,
) *Handler {
	return &Handler{
		DB:          db,
		JWTSecret:   jwtSecret,
		Monitor:     monitor,
		RateLimiter: rateLimiter,
		Weather:     weather,
		Backup:      backup,
		Archiver:    archiver,
		Exporter:    exporter,
		Converter:   converter,
		Quality:     quality,
		Tasks:       tasks,
		SysInfo:     sysInfo,
	}
}
