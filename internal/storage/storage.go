package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LJTian/ReliefHub/internal/processor"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Announcement 入库的公告，只插入不修改
type Announcement struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	Title      string `gorm:"size:512;index" json:"title"`
	Content    string `gorm:"type:text" json:"content"`
	Source     string `gorm:"size:16;index" json:"source"` // gov / rthk
	SourceName string `gorm:"size:64" json:"sourceName"`
	URL        string `gorm:"size:1024;index" json:"url"`
	IsUrgent   bool   `gorm:"index" json:"isUrgent"`
	Tag        string `gorm:"size:16;index" json:"tag"` // gov / news / urgent
	Category   string `gorm:"size:32" json:"category"`
	// Timestamp 为 nil 时由数据库时钟填充
	Timestamp *time.Time        `gorm:"index;default:now()" json:"timestamp"`
	Meta      datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   *zap.Logger
}

func NewStore(dsn, redisAddr string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&Announcement{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	s := NewStoreWithDB(db, rdb, log)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		s.log.Warn("redis ping failed", zap.Error(err))
	}

	return s, nil
}

// NewStoreWithDB 使用已有连接，redis 可为 nil
func NewStoreWithDB(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{DB: db, Redis: rdb, log: log}
}

func dedupeColumn(key processor.DedupeKey) (string, error) {
	switch key {
	case processor.KeyTitle:
		return "title", nil
	case processor.KeyURL:
		return "url", nil
	default:
		return "", fmt.Errorf("unknown dedupe key %q", key)
	}
}

func seenKey(key processor.DedupeKey) string {
	return "announcements:seen:" + string(key)
}

// Exists 按字段等值查询，最多取一条。
// 先查 redis 里已知的 key，未命中再查库；查询与写入之间没有事务保护。
func (s *Store) Exists(ctx context.Context, key processor.DedupeKey, value string) (bool, error) {
	col, err := dedupeColumn(key)
	if err != nil {
		return false, err
	}

	if s.Redis != nil {
		hit, err := s.Redis.SIsMember(ctx, seenKey(key), value).Result()
		if err == nil && hit {
			return true, nil
		}
		if err != nil {
			s.log.Debug("redis seen lookup failed", zap.String("key", string(key)), zap.Error(err))
		}
	}

	var found Announcement
	tx := s.DB.WithContext(ctx).Select("id").Where(col+" = ?", value).Limit(1).Find(&found)
	if tx.Error != nil {
		return false, fmt.Errorf("query announcements by %s: %w", col, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}

	s.remember(ctx, key, value)
	return true, nil
}

// Create 追加一条公告
func (s *Store) Create(ctx context.Context, a *Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	if err := s.DB.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}

	s.remember(ctx, processor.KeyTitle, a.Title)
	s.remember(ctx, processor.KeyURL, a.URL)
	return nil
}

func (s *Store) remember(ctx context.Context, key processor.DedupeKey, value string) {
	if s.Redis == nil || value == "" {
		return
	}
	if err := s.Redis.SAdd(ctx, seenKey(key), value).Err(); err != nil {
		s.log.Debug("redis seen add failed", zap.String("key", string(key)), zap.Error(err))
	}
}

// ListFilter 列表查询条件，空字段表示不过滤
type ListFilter struct {
	Source string
	Tag    string
	Limit  int
}

const (
	listCacheTTL = time.Minute
	maxListLimit = 500
)

// ListAnnouncements 按时间倒序返回公告，使用 redis 做短 TTL 缓存
func (s *Store) ListAnnouncements(ctx context.Context, f ListFilter) ([]Announcement, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = 50
	case f.Limit > maxListLimit:
		f.Limit = maxListLimit
	}

	cacheKey := fmt.Sprintf("announcements:list:%s:%s:%d", f.Source, f.Tag, f.Limit)
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Announcement
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	db := s.DB.WithContext(ctx).Model(&Announcement{})
	if f.Source != "" {
		db = db.Where("source = ?", f.Source)
	}
	if f.Tag != "" {
		db = db.Where("tag = ?", f.Tag)
	}

	var list []Announcement
	if err := db.Order("timestamp DESC").Order("created_at DESC").Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}

	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}
