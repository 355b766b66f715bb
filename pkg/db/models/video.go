package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/openflix/catalog-admin/pkg/db/types"
	"github.com/openflix/catalog-admin/pkg/enums"
)

// Video is the persistence row for the video aggregate. Media slots are
// flattened onto the row; ids are assigned in code so the model also works
// against sqlite in tests.
type Video struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	Title       string       `gorm:"column:title;not null"`
	Description string       `gorm:"column:description"`
	LaunchYear  int          `gorm:"column:launch_year;not null"`
	Duration    float64      `gorm:"column:duration;not null"`
	Rating      enums.Rating `gorm:"column:rating;not null"`
	Opened      bool         `gorm:"column:opened;not null;default:false"`
	Published   bool         `gorm:"column:published;not null;default:false"`

	CategoryIDs   dbtypes.UUIDArray `gorm:"column:category_ids;type:uuid[]"`
	GenreIDs      dbtypes.UUIDArray `gorm:"column:genre_ids;type:uuid[]"`
	CastMemberIDs dbtypes.UUIDArray `gorm:"column:cast_member_ids;type:uuid[]"`

	VideoMediaID      *uuid.UUID         `gorm:"column:video_media_id;type:uuid"`
	VideoChecksum     *string            `gorm:"column:video_checksum"`
	VideoRawLocation  *string            `gorm:"column:video_raw_location"`
	VideoEncodedLoc   *string            `gorm:"column:video_encoded_location"`
	VideoStatus       *enums.MediaStatus `gorm:"column:video_status"`
	VideoStatusReason *string            `gorm:"column:video_status_reason"`

	TrailerMediaID      *uuid.UUID         `gorm:"column:trailer_media_id;type:uuid"`
	TrailerChecksum     *string            `gorm:"column:trailer_checksum"`
	TrailerRawLocation  *string            `gorm:"column:trailer_raw_location"`
	TrailerEncodedLoc   *string            `gorm:"column:trailer_encoded_location"`
	TrailerStatus       *enums.MediaStatus `gorm:"column:trailer_status"`
	TrailerStatusReason *string            `gorm:"column:trailer_status_reason"`

	BannerChecksum        *string `gorm:"column:banner_checksum"`
	BannerName            *string `gorm:"column:banner_name"`
	BannerLocation        *string `gorm:"column:banner_location"`
	ThumbnailChecksum     *string `gorm:"column:thumbnail_checksum"`
	ThumbnailName         *string `gorm:"column:thumbnail_name"`
	ThumbnailLocation     *string `gorm:"column:thumbnail_location"`
	ThumbnailHalfChecksum *string `gorm:"column:thumbnail_half_checksum"`
	ThumbnailHalfName     *string `gorm:"column:thumbnail_half_name"`
	ThumbnailHalfLocation *string `gorm:"column:thumbnail_half_location"`

	Version   int       `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Video) TableName() string {
	return "videos"
}
