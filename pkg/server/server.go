// Package server provides the HTTP API the gallery front end reads from.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/tstromberg/folio/pkg/folio"
)

// derivativePrefix is the URL path derivatives are served under.
const derivativePrefix = "/optimized/"

// Server serves gallery data.
type Server struct {
	c   *folio.Config
	lib *folio.Library
}

// New creates a new server.
func New(c *folio.Config, lib *folio.Library) *Server {
	return &Server{c: c, lib: lib}
}

// photoView is a photo as the front end consumes it: derivative URLs instead of file paths.
type photoView struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Src             string      `json:"src"`
	OptimizedSrc    string      `json:"optimizedSrc"`
	ThumbnailSrc    string      `json:"thumbnailSrc"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	ThumbnailWidth  int         `json:"thumbnailWidth"`
	ThumbnailHeight int         `json:"thumbnailHeight"`
	BlurDataURL     string      `json:"blurDataURL,omitempty"`
	Exif            *folio.Exif `json:"exif,omitempty"`
	Description     string      `json:"description,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
}

func view(p *folio.Photo) photoView {
	opt := path.Join(derivativePrefix, filepath.Base(p.OptimizedPath))
	return photoView{
		ID:              p.ID,
		Title:           p.Title,
		Src:             opt,
		OptimizedSrc:    opt,
		ThumbnailSrc:    path.Join(derivativePrefix, filepath.Base(p.ThumbnailPath)),
		Width:           p.Width,
		Height:          p.Height,
		ThumbnailWidth:  p.ThumbnailWidth,
		ThumbnailHeight: p.ThumbnailHeight,
		BlurDataURL:     p.BlurPlaceholder,
		Exif:            p.Exif,
		Description:     p.Description,
		Tags:            p.Tags,
	}
}

// Router returns the HTTP handler for all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := s.c.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/photos", s.GalleryHandler())
		r.Get("/photos/*", s.PhotoHandler())
		r.Get("/collections", s.CollectionsHandler())
	})

	r.Get(derivativePrefix+"*", s.DerivativeHandler())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// GalleryHandler lists the photos of the collection named by the "path" query parameter.
func (s *Server) GalleryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := s.lib.Gallery(r.Context(), r.URL.Query().Get("path"))
		if err != nil {
			klog.Errorf("gallery: %v", err)
			respondError(w, http.StatusInternalServerError, "unable to list photos")
			return
		}

		vs := make([]photoView, 0, len(g.Photos))
		for _, p := range g.Photos {
			vs = append(vs, view(p))
		}
		respondJSON(w, http.StatusOK, struct {
			Path   string      `json:"path"`
			Photos []photoView `json:"photos"`
		}{Path: g.Path, Photos: vs})
	}
}

// PhotoHandler returns a single photo for the detail view.
func (s *Server) PhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := url.PathUnescape(chi.URLParam(r, "*"))
		if err != nil || id == "" {
			respondError(w, http.StatusBadRequest, "invalid photo id")
			return
		}

		p, err := s.lib.Photo(r.Context(), id)
		if errors.Is(err, folio.ErrNotFound) {
			respondError(w, http.StatusNotFound, "photo not found")
			return
		}
		if err != nil {
			klog.Errorf("photo %q: %v", id, err)
			respondError(w, http.StatusInternalServerError, "unable to load photo")
			return
		}
		respondJSON(w, http.StatusOK, view(p))
	}
}

// DerivativeHandler serves optimized images and thumbnails. Nothing else in the derivative
// directory is reachable, and directories are never listed.
func (s *Server) DerivativeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		if !folio.IsDerivativeName(name) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(s.c.OutDir, name))
	}
}

// CollectionsHandler returns the collection tree.
func (s *Server) CollectionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		cs, err := s.lib.Collections()
		if err != nil {
			klog.Errorf("collections: %v", err)
			respondError(w, http.StatusInternalServerError, "unable to list collections")
			return
		}
		respondJSON(w, http.StatusOK, cs)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	bs, err := json.Marshal(payload)
	if err != nil {
		klog.Errorf("marshal: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bs)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
