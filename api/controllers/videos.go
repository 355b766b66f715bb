package controllers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/api/responses"
	"github.com/openflix/catalog-admin/api/validators"
	videosvc "github.com/openflix/catalog-admin/internal/video"
	"github.com/openflix/catalog-admin/pkg/enums"
	pkgerrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/logger"
)

// multipartMemoryLimit caps how much of an upload stays in memory before the
// parser spills to a temp file.
const multipartMemoryLimit = 32 << 20

// CreateVideo registers a new catalog entry.
func CreateVideo(svc *videosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "video service unavailable"))
			return
		}

		var payload videoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meta, err := payload.toMetadata()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		v, err := svc.CreateVideo(r.Context(), meta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toVideoView(v))
	}
}

// GetVideo returns one aggregate with its media slot statuses.
func GetVideo(svc *videosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "video service unavailable"))
			return
		}

		videoID, err := pathUUID(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		v, err := svc.GetVideo(r.Context(), videoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toVideoView(v))
	}
}

// UpdateVideo replaces the scalar metadata of an existing entry.
func UpdateVideo(svc *videosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "video service unavailable"))
			return
		}

		videoID, err := pathUUID(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload videoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meta, err := payload.toMetadata()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		v, err := svc.UpdateVideo(r.Context(), videoID, meta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toVideoView(v))
	}
}

// AttachVideoMedia receives a multipart upload for one media slot.
func AttachVideoMedia(svc *videosvc.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "video service unavailable"))
			return
		}

		videoID, err := pathUUID(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := enums.ParseMediaType(chi.URLParam(r, "mediaType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media type"))
			return
		}

		// one extra MB of headroom for the multipart framing
		if maxUploadMB > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, int64(maxUploadMB+1)*1024*1024)
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		checksum := strings.TrimSpace(r.FormValue("checksum"))
		if checksum == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "checksum is required"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file"))
			return
		}

		v, err := svc.AttachMedia(r.Context(), videosvc.AttachMediaCommand{
			VideoID:     videoID,
			Slot:        slot,
			Checksum:    checksum,
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toVideoView(v))
	}
}

// MarkVideoMediaProcessing applies the encoder's processing signal over HTTP.
func MarkVideoMediaProcessing(svc *videosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "video service unavailable"))
			return
		}

		videoID, err := pathUUID(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := enums.ParseMediaType(chi.URLParam(r, "mediaType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media type"))
			return
		}

		var payload processingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resourceID, err := uuid.Parse(payload.ResourceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid resource id"))
			return
		}

		if err := svc.MarkMediaProcessing(r.Context(), videoID, slot, resourceID); err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeStaleNotification) {
				responses.WriteSuccess(w, map[string]string{"status": "stale"})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processing"})
	}
}

type videoRequest struct {
	Title         string   `json:"title" validate:"required,max=255"`
	Description   string   `json:"description" validate:"max=4000"`
	LaunchYear    int      `json:"launch_year" validate:"required"`
	Duration      float64  `json:"duration" validate:"required,gt=0"`
	Rating        string   `json:"rating" validate:"required"`
	Opened        bool     `json:"opened"`
	Published     bool     `json:"published"`
	CategoryIDs   []string `json:"category_ids,omitempty"`
	GenreIDs      []string `json:"genre_ids,omitempty"`
	CastMemberIDs []string `json:"cast_member_ids,omitempty"`
}

type processingRequest struct {
	ResourceID string `json:"resource_id" validate:"required"`
}

func (r videoRequest) toMetadata() (videosvc.Metadata, error) {
	rating, err := enums.ParseRating(strings.TrimSpace(r.Rating))
	if err != nil {
		return videosvc.Metadata{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rating")
	}

	categories, err := parseUUIDList("category_ids", r.CategoryIDs)
	if err != nil {
		return videosvc.Metadata{}, err
	}
	genres, err := parseUUIDList("genre_ids", r.GenreIDs)
	if err != nil {
		return videosvc.Metadata{}, err
	}
	castMembers, err := parseUUIDList("cast_member_ids", r.CastMemberIDs)
	if err != nil {
		return videosvc.Metadata{}, err
	}

	return videosvc.Metadata{
		Title:         r.Title,
		Description:   r.Description,
		LaunchYear:    r.LaunchYear,
		Duration:      r.Duration,
		Rating:        rating,
		Opened:        r.Opened,
		Published:     r.Published,
		CategoryIDs:   categories,
		GenreIDs:      genres,
		CastMemberIDs: castMembers,
	}, nil
}

func parseUUIDList(field string, values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field+" entry")
		}
		out = append(out, id)
	}
	return out, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

type videoView struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	LaunchYear    int        `json:"launch_year"`
	Duration      float64    `json:"duration"`
	Rating        string     `json:"rating"`
	Opened        bool       `json:"opened"`
	Published     bool       `json:"published"`
	CategoryIDs   []string   `json:"category_ids"`
	GenreIDs      []string   `json:"genre_ids"`
	CastMemberIDs []string   `json:"cast_member_ids"`
	Video         *mediaView `json:"video,omitempty"`
	Trailer       *mediaView `json:"trailer,omitempty"`
	Banner        *imageView `json:"banner,omitempty"`
	Thumbnail     *imageView `json:"thumbnail,omitempty"`
	ThumbnailHalf *imageView `json:"thumbnail_half,omitempty"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type mediaView struct {
	ID              string `json:"id"`
	Checksum        string `json:"checksum"`
	RawLocation     string `json:"raw_location"`
	EncodedLocation string `json:"encoded_location,omitempty"`
	Status          string `json:"status"`
	StatusReason    string `json:"status_reason,omitempty"`
}

type imageView struct {
	Checksum string `json:"checksum"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

func toVideoView(v *videosvc.Video) videoView {
	return videoView{
		ID:            v.ID.String(),
		Title:         v.Title,
		Description:   v.Description,
		LaunchYear:    v.LaunchYear,
		Duration:      v.Duration,
		Rating:        string(v.Rating),
		Opened:        v.Opened,
		Published:     v.Published,
		CategoryIDs:   uuidStrings(v.CategoryIDs),
		GenreIDs:      uuidStrings(v.GenreIDs),
		CastMemberIDs: uuidStrings(v.CastMemberIDs),
		Video:         toMediaView(v.VideoFile),
		Trailer:       toMediaView(v.Trailer),
		Banner:        toImageView(v.Banner),
		Thumbnail:     toImageView(v.Thumbnail),
		ThumbnailHalf: toImageView(v.ThumbnailHalf),
		Version:       v.Version,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func toMediaView(m *videosvc.AudioVideoMedia) *mediaView {
	if m == nil {
		return nil
	}
	return &mediaView{
		ID:              m.ID.String(),
		Checksum:        m.Checksum,
		RawLocation:     m.RawLocation,
		EncodedLocation: m.EncodedLocation,
		Status:          string(m.Status),
		StatusReason:    m.StatusReason,
	}
}

func toImageView(m *videosvc.ImageMedia) *imageView {
	if m == nil {
		return nil
	}
	return &imageView{Checksum: m.Checksum, Name: m.Name, Location: m.Location}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
