package router

import (
	"time"

	"github.com/dailymetrics/internal/config"
	"github.com/dailymetrics/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("dailymetrics_session", store))

	// 前端单页应用跨域访问，需要携带会话 Cookie
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))

	// 上传文件静态服务
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := handler.NewAPI(gdb, cfg)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
	}

	// 需要登录的业务路由
	authed := r.Group("/api")
	authed.Use(handler.AuthRequired())
	{
		authed.GET("/dashboard", api.GetDashboard)
		authed.POST("/metrics/increment", api.IncrementMetric)
		authed.GET("/charts/activity/:id", api.GetActivityChart)
		authed.GET("/leaderboard", api.GetLeaderboard)

		authed.GET("/users/me", api.GetCurrentUser)
		authed.PUT("/users/me", api.UpdateCurrentUser)
		authed.POST("/users/:id/photo", api.UploadProfilePhoto)
	}

	// 管理端路由
	admin := r.Group("/api/admin")
	admin.Use(handler.AdminRequired())
	{
		admin.POST("/users", api.CreateUser)
		admin.GET("/users", api.ListUsers)
		admin.GET("/users/search", api.SearchUsers)
		admin.GET("/users/:id", api.GetUser)
		admin.PUT("/users/:id", api.UpdateUser)
		admin.DELETE("/users/:id", api.DeleteUser)
		admin.POST("/users/:id/reset-code", api.ResetLoginCode)

		admin.POST("/activities", api.CreateActivity)
		admin.GET("/activities", api.ListActivities)
		admin.PUT("/activities/:id", api.UpdateActivity)
		admin.DELETE("/activities/:id", api.DeleteActivity)
	}

	return r
}
