package handler

import (
	"github.com/dailymetrics/internal/config"
	"github.com/dailymetrics/internal/db"
	"github.com/dailymetrics/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	metrics     *service.MetricService
	charts      *service.ChartService
	leaderboard *service.LeaderboardService
	activities  *service.ActivityTypeService
	users       *service.UserService
	uploadDir   string
	uploadURL   string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	store := db.NewMetricStore(gdb)
	activities := service.NewActivityTypeService(gdb)

	return &API{
		db:          gdb,
		metrics:     service.NewMetricService(store, activities),
		charts:      service.NewChartService(store, activities),
		leaderboard: service.NewLeaderboardService(store, activities, cfg.BackendBaseURL, cfg.DefaultProfilePhoto),
		activities:  activities,
		users:       service.NewUserService(gdb),
		uploadDir:   cfg.UploadDir,
		uploadURL:   cfg.UploadURLPath,
	}
}

// DB exposes the underlying gorm instance for bootstrap paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
