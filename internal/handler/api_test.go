package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dailymetrics/internal/config"
	"github.com/dailymetrics/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAPITest(t *testing.T) (*API, *gin.Engine, *gorm.DB, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.ActivityType{}, &db.Metric{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	db.DB = gdb

	cfg := config.AppConfig{
		BackendBaseURL:      "http://localhost:8080",
		DefaultProfilePhoto: "/images/default-profile.png",
		UploadDir:           t.TempDir(),
		UploadURLPath:       "/uploads",
	}
	api := NewAPI(gdb, cfg)

	router := gin.New()
	router.Use(sessions.Sessions("dailymetrics_session", cookie.NewStore([]byte("test-secret"))))

	auth := router.Group("/api/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
	}

	authed := router.Group("/api")
	authed.Use(AuthRequired())
	{
		authed.GET("/dashboard", api.GetDashboard)
		authed.POST("/metrics/increment", api.IncrementMetric)
		authed.GET("/charts/activity/:id", api.GetActivityChart)
		authed.GET("/leaderboard", api.GetLeaderboard)

		authed.GET("/users/me", api.GetCurrentUser)
		authed.PUT("/users/me", api.UpdateCurrentUser)
		authed.POST("/users/:id/photo", api.UploadProfilePhoto)
	}

	admin := router.Group("/api/admin")
	admin.Use(AdminRequired())
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

	return api, router, gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedTestUser(t *testing.T, gdb *gorm.DB, username, loginCode string, isAdmin bool) *db.User {
	t.Helper()
	user := db.User{Username: username, LoginCode: loginCode, IsAdmin: isAdmin}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return &user
}

func seedTestActivity(t *testing.T, gdb *gorm.DB, name string) *db.ActivityType {
	t.Helper()
	activity := db.ActivityType{Name: name}
	if err := gdb.Create(&activity).Error; err != nil {
		t.Fatalf("failed to seed activity %s: %v", name, err)
	}
	return &activity
}

// loginAs 通过登录接口换取会话 Cookie，后续请求带上它模拟已登录用户。
func loginAs(t *testing.T, router *gin.Engine, loginCode string) []*http.Cookie {
	t.Helper()
	recorder := httptest.NewRecorder()
	body := fmt.Sprintf(`{"login_code":%q}`, loginCode)
	request := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
	return recorder.Result().Cookies()
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body io.Reader, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, path, body)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		request.AddCookie(c)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return doRequest(t, router, method, path, reader, "application/json", cookies)
}
