package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr          string
	Port                string
	DatabasePath        string
	SessionSecret       string
	GinMode             string
	UploadDir           string
	UploadURLPath       string
	BackendBaseURL      string
	DefaultProfilePhoto string
	AllowedOrigins      []string
	AdminUsername       string
	AdminLoginCode      string
	LogPath             string
	LogLevel            string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "dailymetrics.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "dailymetrics-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "static/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/uploads"
	}

	backendBaseURL := strings.TrimSpace(os.Getenv("BACKEND_BASE_URL"))
	if backendBaseURL == "" {
		backendBaseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	defaultProfilePhoto := strings.TrimSpace(os.Getenv("DEFAULT_PROFILE_PHOTO"))
	if defaultProfilePhoto == "" {
		defaultProfilePhoto = "/images/default-profile.png"
	}

	// 前端开发服务器默认跑在 3000/5173 端口
	origins := splitOrigins(os.Getenv("ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	logPath := strings.TrimSpace(os.Getenv("LOG_PATH"))
	if logPath == "" {
		logPath = "logs/dailymetrics.log"
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	adminUsername := strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	adminLoginCode := strings.TrimSpace(os.Getenv("ADMIN_LOGIN_CODE"))

	return AppConfig{
		ListenAddr:          listenAddr,
		Port:                port,
		DatabasePath:        databasePath,
		SessionSecret:       sessionSecret,
		GinMode:             ginMode,
		UploadDir:           uploadDir,
		UploadURLPath:       uploadURLPath,
		BackendBaseURL:      backendBaseURL,
		DefaultProfilePhoto: defaultProfilePhoto,
		AllowedOrigins:      origins,
		AdminUsername:       adminUsername,
		AdminLoginCode:      adminLoginCode,
		LogPath:             logPath,
		LogLevel:            logLevel,
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		origins = append(origins, trimmed)
	}
	return origins
}
