package video

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openflix/catalog-admin/pkg/db"
	"github.com/openflix/catalog-admin/pkg/db/models"
	"github.com/openflix/catalog-admin/pkg/enums"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/logger"
	"github.com/openflix/catalog-admin/pkg/outbox"
)

const videosTableSQL = `
CREATE TABLE IF NOT EXISTS videos (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  launch_year INTEGER NOT NULL,
  duration REAL NOT NULL,
  rating TEXT NOT NULL,
  opened INTEGER NOT NULL DEFAULT 0,
  published INTEGER NOT NULL DEFAULT 0,
  category_ids TEXT,
  genre_ids TEXT,
  cast_member_ids TEXT,
  video_media_id TEXT,
  video_checksum TEXT,
  video_raw_location TEXT,
  video_encoded_location TEXT,
  video_status TEXT,
  video_status_reason TEXT,
  trailer_media_id TEXT,
  trailer_checksum TEXT,
  trailer_raw_location TEXT,
  trailer_encoded_location TEXT,
  trailer_status TEXT,
  trailer_status_reason TEXT,
  banner_checksum TEXT,
  banner_name TEXT,
  banner_location TEXT,
  thumbnail_checksum TEXT,
  thumbnail_name TEXT,
  thumbnail_location TEXT,
  thumbnail_half_checksum TEXT,
  thumbnail_half_name TEXT,
  thumbnail_half_location TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`

const outboxTableSQL = `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`

func setupVideoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(videosTableSQL).Error)
	require.NoError(t, conn.Exec(outboxTableSQL).Error)
	return conn
}

func newVideoRepository(t *testing.T, conn *gorm.DB) (*Repository, *outbox.Repository) {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "repo-test", Output: io.Discard})
	outboxRepo := outbox.NewRepository(conn)
	repo := NewRepository(db.NewFromGorm(conn), outbox.NewService(outboxRepo, logg))
	return repo, outboxRepo
}

func TestRepositoryCreatePersistsAggregateAndOutboxRows(t *testing.T) {
	conn := setupVideoTestDB(t)
	repo, outboxRepo := newVideoRepository(t, conn)

	v := mustVideo(t)
	_, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4")
	require.NoError(t, err)
	require.Len(t, v.PendingEvents(), 2)

	require.NoError(t, repo.Create(context.Background(), v))
	assert.Equal(t, 1, v.Version)
	assert.Empty(t, v.PendingEvents())

	rows, err := outboxRepo.ListByAggregate(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.OutboxEventVideoCreated, rows[0].EventType)
	assert.Equal(t, enums.OutboxEventVideoMediaAttached, rows[1].EventType)
	for _, row := range rows {
		assert.Equal(t, v.ID, row.AggregateID)
		assert.Nil(t, row.PublishedAt)
		assert.Zero(t, row.AttemptCount)
	}
}

func TestRepositoryCreateRollsBackWhenOutboxInsertFails(t *testing.T) {
	// only the videos table exists, so the outbox insert inside the
	// transaction fails and the video row must roll back with it
	conn, err := gorm.Open(sqlite.Open("file:create_rollback?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(videosTableSQL).Error)

	repo, _ := newVideoRepository(t, conn)

	v := mustVideo(t)
	require.Error(t, repo.Create(context.Background(), v))

	var count int64
	require.NoError(t, conn.Model(&models.Video{}).Where("id = ?", v.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositorySaveVersionConflict(t *testing.T) {
	conn := setupVideoTestDB(t)
	repo, _ := newVideoRepository(t, conn)

	v := mustVideo(t)
	require.NoError(t, repo.Create(context.Background(), v))

	// another writer bumps the row first
	require.NoError(t, conn.Model(&models.Video{}).
		Where("id = ?", v.ID).
		Update("version", v.Version+1).Error)

	meta := baseMetadata()
	meta.Title = "Interstellar Voyage: Redux"
	require.NoError(t, v.Update(meta))

	err := repo.Save(context.Background(), v)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeVersionConflict))
}

func TestRepositorySaveAndFindRoundTrip(t *testing.T) {
	conn := setupVideoTestDB(t)
	repo, outboxRepo := newVideoRepository(t, conn)

	v := mustVideo(t)
	require.NoError(t, repo.Create(context.Background(), v))

	media, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4")
	require.NoError(t, err)
	require.NoError(t, v.AttachImageMedia(enums.MediaTypeBanner, "sum-b", "banner.png", "gs://raw/banner.png"))
	require.NoError(t, repo.Save(context.Background(), v))
	assert.Equal(t, 2, v.Version)

	require.NoError(t, v.ReconcileEncodingCompleted(enums.MediaTypeVideo, media.ID, "gs://enc/a"))
	require.NoError(t, repo.Save(context.Background(), v))

	loaded, err := repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)

	assert.Equal(t, v.Title, loaded.Title)
	assert.Equal(t, v.Rating, loaded.Rating)
	assert.Equal(t, v.CategoryIDs, loaded.CategoryIDs)
	assert.Equal(t, 3, loaded.Version)

	require.NotNil(t, loaded.VideoFile)
	assert.Equal(t, media.ID, loaded.VideoFile.ID)
	assert.Equal(t, "sum-1", loaded.VideoFile.Checksum)
	assert.Equal(t, "gs://raw/a.mp4", loaded.VideoFile.RawLocation)
	assert.Equal(t, "gs://enc/a", loaded.VideoFile.EncodedLocation)
	assert.Equal(t, enums.MediaStatusCompleted, loaded.VideoFile.Status)

	require.NotNil(t, loaded.Banner)
	assert.Equal(t, "banner.png", loaded.Banner.Name)
	assert.Equal(t, "gs://raw/banner.png", loaded.Banner.Location)
	assert.Nil(t, loaded.Trailer)
	assert.Nil(t, loaded.Thumbnail)

	rows, err := outboxRepo.ListByAggregate(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	conn := setupVideoTestDB(t)
	repo, _ := newVideoRepository(t, conn)

	_, err := repo.FindByID(context.Background(), mustVideo(t).ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
