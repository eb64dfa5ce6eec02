package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LJTian/ReliefHub/internal/processor"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T, withRedis bool) (*Store, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	if !withRedis {
		return NewStoreWithDB(gdb, nil, nil), mock, nil
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStoreWithDB(gdb, rdb, nil), mock, mr
}

func TestExistsFindsStoredTitle(t *testing.T) {
	s, mock, mr := newMockStore(t, true)

	mock.ExpectQuery(`SELECT .*id.* FROM "announcements" WHERE title = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a1"))

	ok, err := s.Exists(context.Background(), processor.KeyTitle, "大埔火災")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())

	// 命中后写入 redis，下次不再查库
	isMember, err := mr.SIsMember(seenKey(processor.KeyTitle), "大埔火災")
	require.NoError(t, err)
	assert.True(t, isMember)

	ok, err = s.Exists(context.Background(), processor.KeyTitle, "大埔火災")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsNotFound(t *testing.T) {
	s, mock, _ := newMockStore(t, false)

	mock.ExpectQuery(`SELECT .*id.* FROM "announcements" WHERE url = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ok, err := s.Exists(context.Background(), processor.KeyURL, "https://news.example.hk/1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsQueryError(t *testing.T) {
	s, mock, _ := newMockStore(t, false)

	mock.ExpectQuery(`SELECT .* FROM "announcements"`).WillReturnError(errors.New("connection reset"))

	ok, err := s.Exists(context.Background(), processor.KeyTitle, "x")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestExistsUnknownKey(t *testing.T) {
	s, _, _ := newMockStore(t, false)

	_, err := s.Exists(context.Background(), processor.DedupeKey("content"), "x")
	assert.Error(t, err)
}

func TestCreateAssignsIDAndRemembersKeys(t *testing.T) {
	s, mock, mr := newMockStore(t, true)

	mock.ExpectQuery(`INSERT INTO "announcements"`).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp"}).AddRow(time.Now()))

	a := &Announcement{
		Title:    "大埔宏福苑五級火最新情況",
		URL:      "https://news.example.hk/1",
		Source:   "rthk",
		Tag:      processor.TagUrgent,
		IsUrgent: true,
	}
	require.NoError(t, s.Create(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Len(t, a.ID, 36)

	hit, err := mr.SIsMember(seenKey(processor.KeyTitle), a.Title)
	require.NoError(t, err)
	assert.True(t, hit)
	hit, err = mr.SIsMember(seenKey(processor.KeyURL), a.URL)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCreateError(t *testing.T) {
	s, mock, mr := newMockStore(t, true)

	mock.ExpectQuery(`INSERT INTO "announcements"`).WillReturnError(errors.New("disk full"))

	err := s.Create(context.Background(), &Announcement{Title: "t", URL: "u"})
	require.Error(t, err)
	assert.False(t, mr.Exists(seenKey(processor.KeyTitle)))
}

func TestListAnnouncementsCaches(t *testing.T) {
	s, mock, _ := newMockStore(t, true)

	mock.ExpectQuery(`SELECT \* FROM "announcements" WHERE source = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "source", "tag"}).
			AddRow("a1", "宏福苑火災", "gov", "urgent").
			AddRow("a2", "大埔疏散安排", "gov", "gov"))

	ctx := context.Background()
	list, err := s.ListAnnouncements(ctx, ListFilter{Source: "gov", Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "宏福苑火災", list[0].Title)

	// 第二次从缓存返回
	cached, err := s.ListAnnouncements(ctx, ListFilter{Source: "gov", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, list[1].ID, cached[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnnouncementsLimitBounds(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: 50},
		{name: "within range", limit: 120, want: 120},
		{name: "clamped to max", limit: 5000, want: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock, mr := newMockStore(t, true)
			mock.ExpectQuery(`SELECT \* FROM "announcements"`).
				WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("a1", "宏福苑火災"))

			_, err := s.ListAnnouncements(context.Background(), ListFilter{Limit: tt.limit})
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())

			// 缓存 key 记录了实际使用的 limit
			assert.True(t, mr.Exists(fmt.Sprintf("announcements:list:::%d", tt.want)))
		})
	}
}
