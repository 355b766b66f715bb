package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openflix/catalog-admin/pkg/db"
	"github.com/openflix/catalog-admin/pkg/db/models"
	dbtypes "github.com/openflix/catalog-admin/pkg/db/types"
	"github.com/openflix/catalog-admin/pkg/enums"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/outbox"
)

// Repository persists the video aggregate together with its buffered events.
type Repository struct {
	db     *db.Client
	outbox *outbox.Service
}

func NewRepository(client *db.Client, outboxSvc *outbox.Service) *Repository {
	return &Repository{db: client, outbox: outboxSvc}
}

// FindByID loads the aggregate or returns a not-found error.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Video, error) {
	var row models.Video
	err := r.db.DB().WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("video %s not found", id))
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading video")
	}
	return fromModel(row), nil
}

// Create inserts the aggregate and its buffered events in one transaction.
func (r *Repository) Create(ctx context.Context, v *Video) error {
	events := v.PendingEvents()
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		row := toModel(v)
		row.Version = 1
		if err := tx.Create(&row).Error; err != nil {
			if db.IsUniqueViolation(err, "videos_pkey") {
				return apperrors.Wrap(apperrors.CodeConflict, err, "video already exists")
			}
			return apperrors.Wrap(apperrors.CodeDependency, err, "inserting video")
		}
		for _, event := range events {
			if err := r.outbox.Emit(ctx, tx, event); err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "queueing outbox event")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	v.Version = 1
	v.ClearPendingEvents()
	return nil
}

// Save writes the aggregate under optimistic concurrency. When another
// writer bumped the version first, the update matches zero rows and the
// caller gets a version conflict to retry on a fresh load.
func (r *Repository) Save(ctx context.Context, v *Video) error {
	events := v.PendingEvents()
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).
			Where("id = ? AND version = ?", v.ID, v.Version).
			Updates(updateColumns(v))
		if res.Error != nil {
			return apperrors.Wrap(apperrors.CodeDependency, res.Error, "updating video")
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.CodeVersionConflict,
				fmt.Sprintf("video %s was modified concurrently", v.ID))
		}
		for _, event := range events {
			if err := r.outbox.Emit(ctx, tx, event); err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "queueing outbox event")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	v.Version++
	v.ClearPendingEvents()
	return nil
}

func updateColumns(v *Video) map[string]any {
	cols := map[string]any{
		"title":           v.Title,
		"description":     v.Description,
		"launch_year":     v.LaunchYear,
		"duration":        v.Duration,
		"rating":          v.Rating,
		"opened":          v.Opened,
		"published":       v.Published,
		"category_ids":    dbtypes.UUIDArray(v.CategoryIDs),
		"genre_ids":       dbtypes.UUIDArray(v.GenreIDs),
		"cast_member_ids": dbtypes.UUIDArray(v.CastMemberIDs),
		"version":         v.Version + 1,
	}

	cols["video_media_id"], cols["video_checksum"], cols["video_raw_location"],
		cols["video_encoded_location"], cols["video_status"], cols["video_status_reason"] = audioVideoColumns(v.VideoFile)
	cols["trailer_media_id"], cols["trailer_checksum"], cols["trailer_raw_location"],
		cols["trailer_encoded_location"], cols["trailer_status"], cols["trailer_status_reason"] = audioVideoColumns(v.Trailer)

	cols["banner_checksum"], cols["banner_name"], cols["banner_location"] = imageColumns(v.Banner)
	cols["thumbnail_checksum"], cols["thumbnail_name"], cols["thumbnail_location"] = imageColumns(v.Thumbnail)
	cols["thumbnail_half_checksum"], cols["thumbnail_half_name"], cols["thumbnail_half_location"] = imageColumns(v.ThumbnailHalf)

	return cols
}

func audioVideoColumns(m *AudioVideoMedia) (id *uuid.UUID, checksum, raw, encoded, status, reason *string) {
	if m == nil {
		return nil, nil, nil, nil, nil, nil
	}
	mediaID := m.ID
	statusStr := string(m.Status)
	return &mediaID, strPtr(m.Checksum), strPtr(m.RawLocation), strPtrOrNil(m.EncodedLocation), &statusStr, strPtrOrNil(m.StatusReason)
}

func imageColumns(img *ImageMedia) (checksum, name, location *string) {
	if img == nil {
		return nil, nil, nil
	}
	return strPtr(img.Checksum), strPtr(img.Name), strPtr(img.Location)
}

func toModel(v *Video) models.Video {
	row := models.Video{
		ID:            v.ID,
		Title:         v.Title,
		Description:   v.Description,
		LaunchYear:    v.LaunchYear,
		Duration:      v.Duration,
		Rating:        v.Rating,
		Opened:        v.Opened,
		Published:     v.Published,
		CategoryIDs:   dbtypes.UUIDArray(v.CategoryIDs),
		GenreIDs:      dbtypes.UUIDArray(v.GenreIDs),
		CastMemberIDs: dbtypes.UUIDArray(v.CastMemberIDs),
		Version:       v.Version,
	}

	if v.VideoFile != nil {
		id := v.VideoFile.ID
		status := v.VideoFile.Status
		row.VideoMediaID = &id
		row.VideoChecksum = strPtr(v.VideoFile.Checksum)
		row.VideoRawLocation = strPtr(v.VideoFile.RawLocation)
		row.VideoEncodedLoc = strPtrOrNil(v.VideoFile.EncodedLocation)
		row.VideoStatus = &status
		row.VideoStatusReason = strPtrOrNil(v.VideoFile.StatusReason)
	}
	if v.Trailer != nil {
		id := v.Trailer.ID
		status := v.Trailer.Status
		row.TrailerMediaID = &id
		row.TrailerChecksum = strPtr(v.Trailer.Checksum)
		row.TrailerRawLocation = strPtr(v.Trailer.RawLocation)
		row.TrailerEncodedLoc = strPtrOrNil(v.Trailer.EncodedLocation)
		row.TrailerStatus = &status
		row.TrailerStatusReason = strPtrOrNil(v.Trailer.StatusReason)
	}
	if v.Banner != nil {
		row.BannerChecksum = strPtr(v.Banner.Checksum)
		row.BannerName = strPtr(v.Banner.Name)
		row.BannerLocation = strPtr(v.Banner.Location)
	}
	if v.Thumbnail != nil {
		row.ThumbnailChecksum = strPtr(v.Thumbnail.Checksum)
		row.ThumbnailName = strPtr(v.Thumbnail.Name)
		row.ThumbnailLocation = strPtr(v.Thumbnail.Location)
	}
	if v.ThumbnailHalf != nil {
		row.ThumbnailHalfChecksum = strPtr(v.ThumbnailHalf.Checksum)
		row.ThumbnailHalfName = strPtr(v.ThumbnailHalf.Name)
		row.ThumbnailHalfLocation = strPtr(v.ThumbnailHalf.Location)
	}
	return row
}

func fromModel(row models.Video) *Video {
	v := &Video{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		LaunchYear:    row.LaunchYear,
		Duration:      row.Duration,
		Rating:        row.Rating,
		Opened:        row.Opened,
		Published:     row.Published,
		CategoryIDs:   row.CategoryIDs,
		GenreIDs:      row.GenreIDs,
		CastMemberIDs: row.CastMemberIDs,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}

	if row.VideoMediaID != nil {
		v.VideoFile = &AudioVideoMedia{
			ID:              *row.VideoMediaID,
			Checksum:        strVal(row.VideoChecksum),
			RawLocation:     strVal(row.VideoRawLocation),
			EncodedLocation: strVal(row.VideoEncodedLoc),
			Status:          mediaStatusVal(row.VideoStatus),
			StatusReason:    strVal(row.VideoStatusReason),
		}
	}
	if row.TrailerMediaID != nil {
		v.Trailer = &AudioVideoMedia{
			ID:              *row.TrailerMediaID,
			Checksum:        strVal(row.TrailerChecksum),
			RawLocation:     strVal(row.TrailerRawLocation),
			EncodedLocation: strVal(row.TrailerEncodedLoc),
			Status:          mediaStatusVal(row.TrailerStatus),
			StatusReason:    strVal(row.TrailerStatusReason),
		}
	}
	if row.BannerChecksum != nil {
		v.Banner = &ImageMedia{
			Checksum: strVal(row.BannerChecksum),
			Name:     strVal(row.BannerName),
			Location: strVal(row.BannerLocation),
		}
	}
	if row.ThumbnailChecksum != nil {
		v.Thumbnail = &ImageMedia{
			Checksum: strVal(row.ThumbnailChecksum),
			Name:     strVal(row.ThumbnailName),
			Location: strVal(row.ThumbnailLocation),
		}
	}
	if row.ThumbnailHalfChecksum != nil {
		v.ThumbnailHalf = &ImageMedia{
			Checksum: strVal(row.ThumbnailHalfChecksum),
			Name:     strVal(row.ThumbnailHalfName),
			Location: strVal(row.ThumbnailHalfLocation),
		}
	}
	return v
}

func strPtr(s string) *string {
	return &s
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mediaStatusVal(s *enums.MediaStatus) enums.MediaStatus {
	if s == nil {
		return enums.MediaStatusPending
	}
	return *s
}
