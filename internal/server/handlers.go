package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/codewing/plugin-updater/internal/config"
	"github.com/codewing/plugin-updater/internal/release"
	"github.com/go-chi/chi/v5"
)

func (s *Server) listManifests(w http.ResponseWriter, r *http.Request) {
	res := make([]string, 0)
	for _, p := range config.Plugins {
		res = append(res, p.Slug)
	}
	s.writeJSON(w, res)
}

func (s *Server) findDefinition(w http.ResponseWriter, r *http.Request) *release.Definition {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		s.writeJSONError(w, r, http.StatusBadRequest, fmt.Errorf("plugin slug is missing"))
		return nil
	}
	d := config.Plugins.Find(slug)
	if d == nil {
		s.writeJSONError(w, r, http.StatusNotFound, fmt.Errorf("plugin %s not found", slug))
		return nil
	}
	return d
}

func (s *Server) getManifest(w http.ResponseWriter, r *http.Request) {
	d := s.findDefinition(w, r)
	if d == nil {
		return
	}
	m, err := s.loadManifest(r.Context(), d.Slug)
	if errors.Is(err, errManifestNotFound) {
		s.writeJSONError(w, r, http.StatusNotFound, err, fmt.Sprintf("manifest %s has not been published yet", d.Slug))
		return
	}
	if err != nil {
		s.writeJSONError(w, r, http.StatusInternalServerError, err, "could not load manifest")
		return
	}
	s.setInCache(r.Context(), s.getCacheKeyFromRequest(r), m)
	s.writeJSON(w, m)
}

func (s *Server) publish(r *http.Request, d *release.Definition) error {
	m, err := d.BuildManifest(r.Context(), s.ghClient)
	if err != nil {
		return err
	}
	key, err := s.storeManifest(r.Context(), m)
	if err != nil {
		return fmt.Errorf("could not store manifest: %w", err)
	}
	s.invalidateByPrefix(s.getCacheKeyPrefixFromSlug(d.Slug))
	s.requestLogger(r).Infof("published manifest %s@%s to %s %s", d.Slug, m.Version, key, s.config.GetPublicManifestURL(key))
	return nil
}

func (s *Server) refreshAllManifests(w http.ResponseWriter, r *http.Request) {
	err := s.ghSemaphore.Acquire(r.Context(), 1)
	if err != nil {
		s.writeJSONError(w, r, http.StatusTooManyRequests, err, "could not acquire semaphore")
		return
	}
	defer s.ghSemaphore.Release(1)

	reqLogger := s.requestLogger(r)
	reqLogger.Warn("refreshing all manifests...")
	for _, d := range config.Plugins {
		reqLogger.Infof("refreshing manifest %s", d.Slug)
		if err := s.publish(r, d); err != nil {
			s.writeJSONError(w, r, http.StatusInternalServerError, err, "could not refresh manifest")
			return
		}
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) refreshManifest(w http.ResponseWriter, r *http.Request) {
	d := s.findDefinition(w, r)
	if d == nil {
		return
	}
	err := s.ghSemaphore.Acquire(r.Context(), 1)
	if err != nil {
		s.writeJSONError(w, r, http.StatusTooManyRequests, err, "could not acquire semaphore")
		return
	}
	defer s.ghSemaphore.Release(1)

	s.requestLogger(r).Infof("refreshing manifest %s", d.Slug)
	if err := s.publish(r, d); err != nil {
		s.writeJSONError(w, r, http.StatusInternalServerError, err, "could not refresh manifest")
		return
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}
