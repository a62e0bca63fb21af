package service

import (
	"errors"
	"testing"
	"time"

	"github.com/dailymetrics/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMetricServiceTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.ActivityType{}, &db.Metric{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedUser(t *testing.T, gdb *gorm.DB, username, loginCode string) *db.User {
	t.Helper()
	user := db.User{Username: username, LoginCode: loginCode}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return &user
}

func seedActivity(t *testing.T, gdb *gorm.DB, name, image string) *db.ActivityType {
	t.Helper()
	activity := db.ActivityType{Name: name, Image: image}
	if err := gdb.Create(&activity).Error; err != nil {
		t.Fatalf("failed to seed activity %s: %v", name, err)
	}
	return &activity
}

func newMetricService(gdb *gorm.DB) *MetricService {
	return NewMetricService(db.NewMetricStore(gdb), NewActivityTypeService(gdb))
}

func TestMetricServiceIncrementValidation(t *testing.T) {
	gdb, cleanup := setupMetricServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "小明", "METRIC000000000A")
	activity := seedActivity(t, gdb, "俯卧撑", "")
	svc := newMetricService(gdb)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if _, err := svc.Increment(user.ID, activity.ID, 0, now); !errors.Is(err, ErrInvalidIncrement) {
		t.Fatalf("expected ErrInvalidIncrement for zero value, got %v", err)
	}
	if _, err := svc.Increment(user.ID, activity.ID, -3, now); !errors.Is(err, ErrInvalidIncrement) {
		t.Fatalf("expected ErrInvalidIncrement for negative value, got %v", err)
	}
	if _, err := svc.Increment(user.ID, activity.ID+100, 5, now); !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound for unknown activity, got %v", err)
	}

	metric, err := svc.Increment(user.ID, activity.ID, 5, now)
	if err != nil {
		t.Fatalf("Increment returned error: %v", err)
	}
	if metric.Count != 5 {
		t.Fatalf("expected count 5, got %d", metric.Count)
	}
}

func TestMetricServiceDashboard(t *testing.T) {
	gdb, cleanup := setupMetricServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "小红", "METRIC000000000B")
	pushups := seedActivity(t, gdb, "俯卧撑", "")
	reading := seedActivity(t, gdb, "阅读", "")
	svc := newMetricService(gdb)

	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	lastMonth := now.AddDate(0, -1, 0)
	lastYear := now.AddDate(-1, 0, 0)

	for _, seed := range []struct {
		when  time.Time
		count int
	}{
		{now, 10},
		{yesterday, 8},
		{lastMonth, 6},
		{lastYear, 4},
	} {
		if _, err := svc.Increment(user.ID, pushups.ID, seed.count, seed.when); err != nil {
			t.Fatalf("failed to seed metric: %v", err)
		}
	}

	summaries, err := svc.Dashboard(user.ID, now)
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected one row per activity, got %d", len(summaries))
	}

	row := summaries[0]
	if row.Activity.ID != pushups.ID {
		t.Fatalf("expected activities in enumeration order, got %d first", row.Activity.ID)
	}
	if row.TodayCount != 10 || row.YesterdayCount != 8 {
		t.Fatalf("unexpected today/yesterday: %d/%d", row.TodayCount, row.YesterdayCount)
	}
	if row.TotalAll != 28 {
		t.Fatalf("expected all-time total 28, got %d", row.TotalAll)
	}
	if row.TotalMonth != 18 {
		t.Fatalf("expected month total 18, got %d", row.TotalMonth)
	}
	if row.TotalYear != 24 {
		t.Fatalf("expected year total 24, got %d", row.TotalYear)
	}
	if row.Streak != 2 {
		t.Fatalf("expected 2-day streak, got %d", row.Streak)
	}

	empty := summaries[1]
	if empty.Activity.ID != reading.ID {
		t.Fatalf("expected reading second, got %d", empty.Activity.ID)
	}
	if empty.TotalAll != 0 || empty.Streak != 0 {
		t.Fatalf("expected zeroed summary for untouched activity, got total %d streak %d", empty.TotalAll, empty.Streak)
	}
}

func TestMetricServiceStreakCountsRun(t *testing.T) {
	gdb, cleanup := setupMetricServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "小刚", "METRIC000000000C")
	activity := seedActivity(t, gdb, "晨跑", "")
	svc := newMetricService(gdb)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if _, err := svc.Increment(user.ID, activity.ID, 1, today.AddDate(0, 0, -i)); err != nil {
			t.Fatalf("failed to seed metric: %v", err)
		}
	}
	// 断档前的旧记录不计入连胜
	if _, err := svc.Increment(user.ID, activity.ID, 1, today.AddDate(0, 0, -6)); err != nil {
		t.Fatalf("failed to seed metric: %v", err)
	}

	streak, err := svc.Streak(user.ID, activity.ID, today)
	if err != nil {
		t.Fatalf("Streak returned error: %v", err)
	}
	if streak != 4 {
		t.Fatalf("expected streak 4, got %d", streak)
	}
}

func TestMetricServiceStreakLenientToday(t *testing.T) {
	gdb, cleanup := setupMetricServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "小美", "METRIC000000000D")
	activity := seedActivity(t, gdb, "喝水", "")
	svc := newMetricService(gdb)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	// 今天没打卡，昨天起连续 3 天
	for i := 1; i <= 3; i++ {
		if _, err := svc.Increment(user.ID, activity.ID, 2, today.AddDate(0, 0, -i)); err != nil {
			t.Fatalf("failed to seed metric: %v", err)
		}
	}

	streak, err := svc.Streak(user.ID, activity.ID, today)
	if err != nil {
		t.Fatalf("Streak returned error: %v", err)
	}
	if streak != 3 {
		t.Fatalf("expected streak 3 when today is not yet logged, got %d", streak)
	}
}

func TestMetricServiceStreakBrokenByGap(t *testing.T) {
	gdb, cleanup := setupMetricServiceTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "小强", "METRIC000000000E")
	activity := seedActivity(t, gdb, "阅读", "")
	svc := newMetricService(gdb)

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	// 今天和昨天都没打卡，前天有记录也不算
	if _, err := svc.Increment(user.ID, activity.ID, 1, today.AddDate(0, 0, -2)); err != nil {
		t.Fatalf("failed to seed metric: %v", err)
	}

	streak, err := svc.Streak(user.ID, activity.ID, today)
	if err != nil {
		t.Fatalf("Streak returned error: %v", err)
	}
	if streak != 0 {
		t.Fatalf("expected streak 0 after a gap, got %d", streak)
	}
}
