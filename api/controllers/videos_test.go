package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	videosvc "github.com/openflix/catalog-admin/internal/video"
	"github.com/openflix/catalog-admin/pkg/config"
	"github.com/openflix/catalog-admin/pkg/enums"
	pkgerrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/logger"
)

type testVideoRepo struct {
	videos map[uuid.UUID]*videosvc.Video
}

func newTestVideoRepo() *testVideoRepo {
	return &testVideoRepo{videos: map[uuid.UUID]*videosvc.Video{}}
}

func (r *testVideoRepo) FindByID(_ context.Context, id uuid.UUID) (*videosvc.Video, error) {
	v, ok := r.videos[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}
	return v, nil
}

func (r *testVideoRepo) Create(_ context.Context, v *videosvc.Video) error {
	r.videos[v.ID] = v
	v.Version = 1
	v.ClearPendingEvents()
	return nil
}

func (r *testVideoRepo) Save(_ context.Context, v *videosvc.Video) error {
	r.videos[v.ID] = v
	v.Version++
	v.ClearPendingEvents()
	return nil
}

type testObjectStore struct{}

func (testObjectStore) StoreObject(_ context.Context, bucket, key, _ string, _ []byte) (string, error) {
	return "gs://" + bucket + "/" + key, nil
}

func newVideoService(t *testing.T, repo *testVideoRepo) *videosvc.Service {
	t.Helper()
	svc, err := videosvc.NewService(videosvc.ServiceParams{
		Config: &config.Config{
			Media: config.MediaConfig{MaxUploadMB: 10},
			GCS:   config.GCSConfig{RawBucket: "raw"},
		},
		Logger:     testLogger(),
		Repository: repo,
		Storage:    testObjectStore{},
	})
	if err != nil {
		t.Fatalf("new video service: %v", err)
	}
	return svc
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx, ok := req.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		routeCtx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	routeCtx.URLParams.Add(key, value)
	return req
}

func TestCreateVideoSuccess(t *testing.T) {
	repo := newTestVideoRepo()
	handler := CreateVideo(newVideoService(t, repo), testLogger())

	body := `{"title":"Interstellar Voyage","description":"sci-fi","launch_year":2024,"duration":128.5,"rating":"12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data videoView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Title != "Interstellar Voyage" {
		t.Fatalf("unexpected title %q", envelope.Data.Title)
	}
	if envelope.Data.ID == "" {
		t.Fatal("response missing id")
	}
	if len(repo.videos) != 1 {
		t.Fatalf("expected one stored video, got %d", len(repo.videos))
	}
}

func TestCreateVideoValidationError(t *testing.T) {
	handler := CreateVideo(newVideoService(t, newTestVideoRepo()), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", strings.NewReader(`{"duration":10}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	handler := GetVideo(newVideoService(t, newTestVideoRepo()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+uuid.NewString(), nil)
	req = addRouteParam(req, "videoId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetVideoInvalidID(t *testing.T) {
	handler := GetVideo(newVideoService(t, newTestVideoRepo()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/invalid", nil)
	req = addRouteParam(req, "videoId", "invalid")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAttachVideoMediaInvalidSlot(t *testing.T) {
	handler := AttachVideoMedia(newVideoService(t, newTestVideoRepo()), 10, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/x/media/poster", nil)
	req = addRouteParam(req, "videoId", uuid.NewString())
	req = addRouteParam(req, "mediaType", "poster")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkVideoMediaProcessingStaleReturnsOK(t *testing.T) {
	repo := newTestVideoRepo()
	svc := newVideoService(t, repo)

	v, err := svc.CreateVideo(context.Background(), videosvc.Metadata{
		Title:      "Interstellar Voyage",
		LaunchYear: 2024,
		Duration:   128.5,
		Rating:     enums.RatingAge12,
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	if _, err := svc.AttachMedia(context.Background(), videosvc.AttachMediaCommand{
		VideoID:  v.ID,
		Slot:     enums.MediaTypeVideo,
		Checksum: "sum-1",
		FileName: "a.mp4",
		Data:     []byte("bytes"),
	}); err != nil {
		t.Fatalf("attach media: %v", err)
	}

	handler := MarkVideoMediaProcessing(svc, testLogger())

	// resource id that is not the current media: stale, still a 200
	body := `{"resource_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+v.ID.String()+"/media/video/processing", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "videoId", v.ID.String())
	req = addRouteParam(req, "mediaType", "video")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "stale" {
		t.Fatalf("expected stale status, got %q", envelope.Data["status"])
	}
}

func TestMarkVideoMediaProcessingMovesSlot(t *testing.T) {
	repo := newTestVideoRepo()
	svc := newVideoService(t, repo)

	v, err := svc.CreateVideo(context.Background(), videosvc.Metadata{
		Title:      "Interstellar Voyage",
		LaunchYear: 2024,
		Duration:   128.5,
		Rating:     enums.RatingAge12,
	})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	updated, err := svc.AttachMedia(context.Background(), videosvc.AttachMediaCommand{
		VideoID:  v.ID,
		Slot:     enums.MediaTypeVideo,
		Checksum: "sum-1",
		FileName: "a.mp4",
		Data:     []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("attach media: %v", err)
	}

	handler := MarkVideoMediaProcessing(svc, testLogger())

	body := `{"resource_id":"` + updated.VideoFile.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+v.ID.String()+"/media/video/processing", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "videoId", v.ID.String())
	req = addRouteParam(req, "mediaType", "video")
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	stored := repo.videos[v.ID]
	if stored.VideoFile.Status != enums.MediaStatusProcessing {
		t.Fatalf("expected processing status, got %s", stored.VideoFile.Status)
	}
}
