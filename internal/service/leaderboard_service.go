package service

import (
	"strings"
	"time"

	"github.com/dailymetrics/internal/db"
)

// LeaderboardEntry 表示排行榜中的一行，Rank 从 1 开始连续递增。
type LeaderboardEntry struct {
	Rank            int
	UserID          uint
	Username        string
	ProfilePhotoURL string
	TotalScore      int64
}

// ActivityOption 是对外输出的活动类型描述，图片已格式化为完整 URL。
type ActivityOption struct {
	ID       uint
	Name     string
	ImageURL string
}

// PersonalRecord 表示用户在某个活动上的单日最高纪录。
type PersonalRecord struct {
	ActivityTypeID   uint
	ActivityName     string
	ActivityImageURL string
	MaxCount         int
	DateAchieved     time.Time
}

// LeaderboardData 是一次排行榜查询的完整结果。
type LeaderboardData struct {
	Entries          []LeaderboardEntry
	SelectedActivity *ActivityOption
	Period           string
	AllActivities    []ActivityOption
	PersonalRecords  []PersonalRecord
}

// LeaderboardService 负责排行榜聚合与个人纪录查询。
type LeaderboardService struct {
	store               MetricStore
	activities          ActivityDirectory
	backendBaseURL      string
	defaultProfilePhoto string
}

// NewLeaderboardService 构造 LeaderboardService。
// backendBaseURL 用于把相对图片路径补成完整 URL，
// defaultProfilePhoto 是没有头像的用户的兜底路径
func NewLeaderboardService(store MetricStore, activities ActivityDirectory, backendBaseURL, defaultProfilePhoto string) *LeaderboardService {
	return &LeaderboardService{
		store:               store,
		activities:          activities,
		backendBaseURL:      strings.TrimRight(backendBaseURL, "/"),
		defaultProfilePhoto: defaultProfilePhoto,
	}
}

// Leaderboard 按活动和时间段聚合所有用户的得分。
// activityID 为空或不存在时回退到第一个活动；没有任何活动时返回空结果而不是错误。
// requestingUserID 非空时附带该用户的个人纪录
func (s *LeaderboardService) Leaderboard(activityID *uint, period string, requestingUserID *uint, now time.Time) (*LeaderboardData, error) {
	allActivities, err := s.activities.List()
	if err != nil {
		return nil, err
	}

	normalizedPeriod := strings.ToLower(strings.TrimSpace(period))
	if normalizedPeriod == "" {
		normalizedPeriod = "all"
	}

	data := &LeaderboardData{
		Entries:         []LeaderboardEntry{},
		Period:          normalizedPeriod,
		AllActivities:   make([]ActivityOption, 0, len(allActivities)),
		PersonalRecords: []PersonalRecord{},
	}

	if len(allActivities) == 0 {
		return data, nil
	}

	for _, activity := range allActivities {
		data.AllActivities = append(data.AllActivities, ActivityOption{
			ID:       activity.ID,
			Name:     activity.Name,
			ImageURL: s.formatImageURL(activity.Image),
		})
	}

	selected := allActivities[0]
	if activityID != nil {
		for _, activity := range allActivities {
			if activity.ID == *activityID {
				selected = activity
				break
			}
		}
	}
	data.SelectedActivity = &ActivityOption{
		ID:       selected.ID,
		Name:     selected.Name,
		ImageURL: s.formatImageURL(selected.Image),
	}

	since := periodStart(normalizedPeriod, db.NormalizeDate(now))

	scores, err := s.store.SumByUserForActivity(selected.ID, since)
	if err != nil {
		return nil, err
	}

	for i, score := range scores {
		photoURL := s.formatImageURL(score.ProfilePhoto)
		if photoURL == "" {
			photoURL = s.backendBaseURL + s.defaultProfilePhoto
		}
		data.Entries = append(data.Entries, LeaderboardEntry{
			Rank:            i + 1,
			UserID:          score.UserID,
			Username:        score.Username,
			ProfilePhotoURL: photoURL,
			TotalScore:      score.TotalScore,
		})
	}

	if requestingUserID != nil {
		bests, err := s.store.MaxCountPerActivity(*requestingUserID)
		if err != nil {
			return nil, err
		}
		for _, best := range bests {
			data.PersonalRecords = append(data.PersonalRecords, PersonalRecord{
				ActivityTypeID:   best.ActivityTypeID,
				ActivityName:     best.ActivityName,
				ActivityImageURL: s.formatImageURL(best.ActivityImage),
				MaxCount:         best.MaxCount,
				DateAchieved:     best.DateAchieved,
			})
		}
	}

	return data, nil
}

// periodStart 把时间段名称翻译成过滤起点，nil 表示不设下界。
// 未识别的时间段与 all 同义
func periodStart(period string, today time.Time) *time.Time {
	var start time.Time
	switch period {
	case "today":
		start = today
	case "week":
		start = previousOrSameMonday(today)
	case "month":
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	case "year":
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	default:
		return nil
	}
	return &start
}

// formatImageURL 把存储的图片路径规整成前端可直接使用的 URL。
// 空白或字面量 "null" 返回空串；完整 URL 原样放行；相对路径补上基础地址
func (s *LeaderboardService) formatImageURL(storedPath string) string {
	path := strings.TrimSpace(storedPath)
	if path == "" || strings.EqualFold(path, "null") {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.backendBaseURL + path
}
