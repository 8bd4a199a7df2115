package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

type addLinkRequest struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes"`
	Category string   `json:"category"`
	Favicon  string   `json:"favicon"`
}

type linksResponse struct {
	Count int               `json:"count"`
	Links []domain.Bookmark `json:"links"`
}

// ListLinks returns the local mirror, filtered by ?q=, ?category= and
// ?tags=a,b (every tag required). With ?q= the best matches come first.
func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := d.Store.AllLinks(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}

		q := r.URL.Query()
		query, category, tags := q.Get("q"), q.Get("category"), domain.SplitTags(q.Get("tags"))

		out := make([]domain.Bookmark, 0, len(all))
		for _, b := range all {
			if b.Matches(query, category, tags) {
				out = append(out, b)
			}
		}
		out = domain.RankBookmarks(query, out)
		writeJSON(w, http.StatusOK, linksResponse{Count: len(out), Links: out})
	}
}

// PendingLinks returns the queue waiting for the next sync.
func PendingLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := d.Store.PendingLinks(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		if pending == nil {
			pending = []domain.Bookmark{}
		}
		writeJSON(w, http.StatusOK, linksResponse{Count: len(pending), Links: pending})
	}
}

// AddLink queues a new bookmark.
func AddLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addLinkRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, err.Error())
			return
		}

		b, err := domain.NewBookmark(req.URL, req.Title, req.Tags, req.Notes, req.Category, req.Favicon, d.Now())
		if err != nil {
			writeError(w, d, err)
			return
		}
		if err := d.Store.AppendLink(r.Context(), b); err != nil {
			writeError(w, d, err)
			return
		}

		d.Logger.Debug("link queued", logger.String("id", b.ID), logger.String("url", b.URL))
		writeJSON(w, http.StatusCreated, b)
	}
}

// DeleteLink removes a bookmark from the queue and the mirror. Copies
// already pushed to the repository are left alone.
func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.DeleteLink(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
