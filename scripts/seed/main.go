package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/dailymetrics/internal/config"
	"github.com/dailymetrics/internal/db"
)

// 测试数据生成器：创建演示用户、活动类型和最近 90 天的打卡记录
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	users := createTestUsers()
	activities := createTestActivities()
	createTestMetrics(users, activities)

	fmt.Println("测试数据生成完成！")
	fmt.Println("管理员: admin (登录码: ADMINADMINADMIN1)")
}

func createTestUsers() []db.User {
	users := []db.User{
		{Username: "admin", LoginCode: "ADMINADMINADMIN1", IsAdmin: true},
		{Username: "小明", LoginCode: "XiaoMing12345678"},
		{Username: "小红", LoginCode: "XiaoHong12345678"},
		{Username: "小刚", LoginCode: "XiaoGang12345678"},
	}

	for i := range users {
		var existing db.User
		if err := db.DB.Where("username = ?", users[i].Username).First(&existing).Error; err == nil {
			users[i] = existing
			continue
		}
		if err := db.DB.Create(&users[i]).Error; err != nil {
			log.Fatal("创建用户失败:", err)
		}
	}
	return users
}

func createTestActivities() []db.ActivityType {
	activities := []db.ActivityType{
		{Name: "晨跑"},
		{Name: "俯卧撑"},
		{Name: "阅读"},
		{Name: "喝水"},
	}

	for i := range activities {
		var existing db.ActivityType
		if err := db.DB.Where("name = ?", activities[i].Name).First(&existing).Error; err == nil {
			activities[i] = existing
			continue
		}
		if err := db.DB.Create(&activities[i]).Error; err != nil {
			log.Fatal("创建活动失败:", err)
		}
	}
	return activities
}

func createTestMetrics(users []db.User, activities []db.ActivityType) {
	store := db.NewMetricStore(db.DB)
	today := db.NormalizeDate(time.Now())

	for _, user := range users {
		if user.IsAdmin {
			continue
		}
		for _, activity := range activities {
			// 每个用户随机跳过一些天，制造稀疏数据
			for offset := 0; offset < 90; offset++ {
				if rand.Intn(3) == 0 {
					continue
				}
				date := today.AddDate(0, 0, -offset)
				if _, err := store.IncrementCount(user.ID, activity.ID, date, 1+rand.Intn(10)); err != nil {
					log.Fatal("写入计数失败:", err)
				}
			}
		}
	}
}
