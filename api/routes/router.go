package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openflix/catalog-admin/api/controllers"
	"github.com/openflix/catalog-admin/api/middleware"
	videosvc "github.com/openflix/catalog-admin/internal/video"
	"github.com/openflix/catalog-admin/pkg/config"
	"github.com/openflix/catalog-admin/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	videoService *videosvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Route("/api/v1/videos", func(r chi.Router) {
		r.Post("/", controllers.CreateVideo(videoService, logg))
		r.Route("/{videoId}", func(r chi.Router) {
			r.Get("/", controllers.GetVideo(videoService, logg))
			r.Put("/", controllers.UpdateVideo(videoService, logg))
			r.Post("/media/{mediaType}", controllers.AttachVideoMedia(videoService, cfg.Media.MaxUploadMB, logg))
			r.Post("/media/{mediaType}/processing", controllers.MarkVideoMediaProcessing(videoService, logg))
		})
	})

	return r
}
