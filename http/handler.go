package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/sagarc03/photoblog"
)

// Service performs the write operations of the catalog.
type Service interface {
	IssueUploadTarget(ctx context.Context, filename, contentType string) (photoblog.UploadTarget, error)
	Create(ctx context.Context, p photoblog.CreatePhoto) (photoblog.Photo, error)
	Update(ctx context.Context, id uuid.UUID, u photoblog.PhotoUpdate) (photoblog.Photo, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Like(ctx context.Context, id uuid.UUID) (photoblog.Photo, error)
}

// Query serves the read paths of the catalog.
type Query interface {
	List(ctx context.Context, q photoblog.ListQuery) (photoblog.PhotoPage, error)
	Get(ctx context.Context, id uuid.UUID) (photoblog.PhotoView, error)
	View(ctx context.Context, photo photoblog.Photo) (photoblog.PhotoView, error)
	Tags(ctx context.Context) ([]string, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// Objects, when set, exposes locally stored objects under /objects/.
	Objects ObjectServer
	// Verifier checks the presigned URLs of /objects/ requests.
	Verifier RequestVerifier
	// MaxUploadSize caps object uploads in bytes; 0 means no limit.
	MaxUploadSize int64
	// Health is pinged by GET /health when set.
	Health Pinger
	CORS   CORSConfig
}

// Handler provides the photo API and, for the local store, object routes.
type Handler struct {
	config  HandlerConfig
	service Service
	query   Query
}

// NewHandler creates a new Handler with the given configuration and services.
func NewHandler(config *HandlerConfig, service Service, query Query) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		query:   query,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/health", h.handleHealth)

	r.Route("/api/photos", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/tags/all", h.handleTags)
		r.Post("/presigned-url", h.handleUploadTarget)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Put("/{id}/like", h.handleLike)
	})

	if h.config.Objects != nil {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.config.Verifier))
			r.Get("/objects/*", h.handleGetObject)
			r.Head("/objects/*", h.handleGetObject)
			r.Put("/objects/*", h.handlePutObject)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, photoblog.KindNotFound, "Route not found")
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.config.Health != nil {
		if err := h.config.Health.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			WriteError(w, http.StatusServiceUnavailable, photoblog.KindStoreUnavailable, "Catalog is unreachable")
			return
		}
	}
	WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		HandleError(w, err)
		return
	}

	page, err := h.query.List(r.Context(), query)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListResponse{
		Success:     true,
		Data:        page.Items,
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
		Total:       page.Total,
		PageSize:    page.PageSize,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	view, err := h.query.Get(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, view)
}

func (h *Handler) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.query.Tags(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, tags)
}

func (h *Handler) handleUploadTarget(w http.ResponseWriter, r *http.Request) {
	var req uploadTargetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	target, err := h.service.IssueUploadTarget(r.Context(), req.Filename, req.ContentType)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, uploadTargetResponse{
		UploadTarget: target,
		PresignedURL: target.UploadURL,
		S3Key:        target.ObjectKey,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	photo, err := h.service.Create(r.Context(), req.toCreate())
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, h.view(r.Context(), photo))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	photo, err := h.service.Update(r.Context(), id, req.toUpdate())
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, h.view(r.Context(), photo))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (h *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	photo, err := h.service.Like(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, h.view(r.Context(), photo))
}

// view attaches a download grant to a committed photo. The write already
// succeeded, so a grant failure is logged and the photo returned without a URL.
func (h *Handler) view(ctx context.Context, photo photoblog.Photo) photoblog.PhotoView {
	view, err := h.query.View(ctx, photo)
	if err != nil {
		slog.Warn("failed to issue download grant", "id", photo.ID, "error", err)
		if photo.Tags == nil {
			photo.Tags = []string{}
		}
		return photoblog.PhotoView{Photo: photo}
	}
	return view
}
