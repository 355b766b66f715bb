package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/pkg/config"
	"github.com/openflix/catalog-admin/pkg/enums"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/logger"
)

// ObjectStore is the storage gateway the attach flow uploads through. The
// aggregate only ever sees opaque locations, never bytes.
type ObjectStore interface {
	StoreObject(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
}

// VideoRepository is the persistence surface the service depends on.
type VideoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Video, error)
	Create(ctx context.Context, v *Video) error
	Save(ctx context.Context, v *Video) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Repository VideoRepository
	Storage    ObjectStore
}

// Service implements the admin commands against the video aggregate.
type Service struct {
	cfg     *config.Config
	logg    *logger.Logger
	repo    VideoRepository
	storage ObjectStore
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("video repository is required")
	}
	if params.Storage == nil {
		return nil, errors.New("object store is required")
	}
	return &Service{
		cfg:     params.Config,
		logg:    params.Logger,
		repo:    params.Repository,
		storage: params.Storage,
	}, nil
}

// CreateVideo registers a new catalog entry.
func (s *Service) CreateVideo(ctx context.Context, meta Metadata) (*Video, error) {
	v, err := NewVideo(meta)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	ctx = s.logg.WithVideoID(ctx, v.ID.String())
	s.logg.Info(ctx, "video created")
	return v, nil
}

// UpdateVideo replaces the scalar metadata of an existing entry.
func (s *Service) UpdateVideo(ctx context.Context, id uuid.UUID, meta Metadata) (*Video, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := v.Update(meta); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetVideo loads a single aggregate with its slot statuses.
func (s *Service) GetVideo(ctx context.Context, id uuid.UUID) (*Video, error) {
	return s.repo.FindByID(ctx, id)
}

// AttachMediaCommand carries one uploaded file for a media slot.
type AttachMediaCommand struct {
	VideoID     uuid.UUID
	Slot        enums.MediaType
	Checksum    string
	FileName    string
	ContentType string
	Data        []byte
}

// AttachMedia uploads the file to the raw bucket and binds the resulting
// location to the slot. For encodable slots this queues the encoder request
// through the outbox; image slots are bound directly.
func (s *Service) AttachMedia(ctx context.Context, cmd AttachMediaCommand) (*Video, error) {
	if !cmd.Slot.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown media slot %q", cmd.Slot))
	}
	if len(cmd.Data) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "file content is required")
	}
	if maxBytes := int64(s.cfg.Media.MaxUploadMB) * 1024 * 1024; maxBytes > 0 && int64(len(cmd.Data)) > maxBytes {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("file exceeds the %dMB upload limit", s.cfg.Media.MaxUploadMB))
	}

	v, err := s.repo.FindByID(ctx, cmd.VideoID)
	if err != nil {
		return nil, err
	}

	// repeat upload of identical content; nothing to store or save
	if current := v.slotChecksum(cmd.Slot); current != "" && current == cmd.Checksum {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"video_id":   v.ID.String(),
			"media_slot": string(cmd.Slot),
		})
		s.logg.Info(ctx, "media content unchanged, attach skipped")
		return v, nil
	}

	key := fmt.Sprintf("videos/%s/%s/%s", cmd.VideoID, cmd.Slot, cmd.FileName)
	location, err := s.storage.StoreObject(ctx, s.cfg.GCS.RawBucket, key, cmd.ContentType, cmd.Data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "storing media object")
	}

	if cmd.Slot.RequiresEncoding() {
		if _, err := v.AttachAudioVideoMedia(cmd.Slot, cmd.Checksum, location); err != nil {
			return nil, err
		}
	} else {
		if err := v.AttachImageMedia(cmd.Slot, cmd.Checksum, cmd.FileName, location); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"video_id":   v.ID.String(),
		"media_slot": string(cmd.Slot),
	})
	s.logg.Info(ctx, "media attached")
	return v, nil
}

// MarkMediaProcessing applies the encoder's processing signal.
func (s *Service) MarkMediaProcessing(ctx context.Context, videoID uuid.UUID, slot enums.MediaType, resourceID uuid.UUID) error {
	v, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		return err
	}
	if err := v.MarkMediaProcessing(slot, resourceID); err != nil {
		return err
	}
	return s.repo.Save(ctx, v)
}

// EncodingResult is a terminal notification from the encoder.
type EncodingResult struct {
	VideoID         uuid.UUID
	Slot            enums.MediaType
	ResourceID      uuid.UUID
	Status          enums.MediaStatus
	EncodedLocation string
	Reason          string
}

// ApplyEncodingResult reconciles a terminal encoder notification with the
// aggregate. Stale results surface as a stale-notification error so the
// caller can drop them; version conflicts surface for redelivery.
func (s *Service) ApplyEncodingResult(ctx context.Context, result EncodingResult) error {
	v, err := s.repo.FindByID(ctx, result.VideoID)
	if err != nil {
		return err
	}

	switch result.Status {
	case enums.MediaStatusCompleted:
		err = v.ReconcileEncodingCompleted(result.Slot, result.ResourceID, result.EncodedLocation)
	case enums.MediaStatusError:
		err = v.ReconcileEncodingFailed(result.Slot, result.ResourceID, result.Reason)
	default:
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("status %q is not a terminal encoding status", result.Status))
	}
	if err != nil {
		return err
	}

	if len(v.PendingEvents()) == 0 {
		// duplicate terminal notification; nothing to persist
		return nil
	}
	return s.repo.Save(ctx, v)
}
