package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	"github.com/Apanazar/WGE/pkg/common"
)

// ArticleResponse is the body of GET /api/parse. Failures are reported in
// Error with a 200 status, which the renderer relies on.
type ArticleResponse struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Links   []string `json:"links"`
	Error   string   `json:"error,omitempty"`
}

// RandomResponse is the body of GET /api/random
type RandomResponse struct {
	URL string `json:"url"`
}

// ContentHandler serves the stateless content endpoints
type ContentHandler struct {
	fetcher   ports.ContentFetcher
	linkLimit int
	logger    *zap.Logger
}

// NewContentHandler creates a content handler. linkLimit caps the links
// returned by Parse; zero keeps them all.
func NewContentHandler(fetcher ports.ContentFetcher, linkLimit int, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{fetcher: fetcher, linkLimit: linkLimit, logger: logger}
}

// Parse handles GET /api/parse?url=
func (h *ContentHandler) Parse(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		h.logger.Warn("Missing URL parameter in parse request")
		common.RespondRaw(w, http.StatusOK, ArticleResponse{Links: []string{}, Error: "Missing URL parameter"})
		return
	}

	result, err := h.fetcher.Fetch(r.Context(), url, h.linkLimit)
	if err != nil {
		common.RespondRaw(w, http.StatusOK, ArticleResponse{Links: []string{}, Error: err.Error()})
		return
	}

	links := make([]string, len(result.Links))
	for i, link := range result.Links {
		links[i] = link.URL
	}
	common.RespondRaw(w, http.StatusOK, ArticleResponse{
		Title:   result.Title,
		Content: result.Content,
		Links:   links,
	})
}

// Random handles GET /api/random?lang=
func (h *ContentHandler) Random(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}

	url, err := h.fetcher.RandomURL(r.Context(), lang)
	if err != nil {
		h.logger.Warn("Random article lookup failed", zap.String("language", lang), zap.Error(err))
		common.RespondError(w, http.StatusBadGateway, "RANDOM_FAILED", err.Error())
		return
	}
	common.RespondRaw(w, http.StatusOK, RandomResponse{URL: url})
}
