package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

// Handler wires the HTTP transport to the question answering service.
type Handler struct {
	svc        qa.Service
	backfiller *qa.Backfiller
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc qa.Service, backfiller *qa.Backfiller, logger *slog.Logger) *Handler {
	return &Handler{
		svc:        svc,
		backfiller: backfiller,
		logger:     logger.With("component", "http.handler"),
	}
}

type askOptions struct {
	UseCache  *bool `json:"useCache"`
	UseRerank *bool `json:"useRerank"`
}

type askRequest struct {
	Question string     `json:"question"`
	Language string     `json:"language"`
	Options  askOptions `json:"options"`
}

// Ask runs a user question through the answering pipeline.
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	query := qa.Query{
		Text:     req.Question,
		Language: req.Language,
		Options: qa.Options{
			UseCache:  boolOr(req.Options.UseCache, true),
			UseRerank: boolOr(req.Options.UseRerank, false),
		},
	}

	result, err := h.svc.ProcessQuery(c.Request.Context(), query)
	if err != nil {
		abortWithError(c, serviceError("ask_failed", err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Popular returns the most frequently asked normalized queries.
func (h *Handler) Popular(c *gin.Context) {
	limit := intQuery(c, "limit", 10)
	queries, err := h.svc.PopularQueries(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, serviceError("popular_failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": queries})
}

// Categories lists FAQ categories for a language.
func (h *Handler) Categories(c *gin.Context) {
	language := languageQuery(c)
	categories, err := h.svc.Categories(c.Request.Context(), language)
	if err != nil {
		abortWithError(c, serviceError("categories_failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ByCategory pages through the entries of one category.
func (h *Handler) ByCategory(c *gin.Context) {
	category := c.Param("category")
	language := languageQuery(c)
	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 20)

	entries, err := h.svc.FAQsByCategory(c.Request.Context(), category, language, offset, limit)
	if err != nil {
		abortWithError(c, serviceError("category_failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "entries": toEntryViews(entries)})
}

// EntryByID fetches a single published FAQ entry.
func (h *Handler) EntryByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "id must be an integer", err))
		return
	}

	entry, err := h.svc.FAQByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, serviceError("faq_failed", err))
		return
	}
	c.JSON(http.StatusOK, toEntryView(entry))
}

// Stats summarizes the published corpus.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.CorpusStats(c.Request.Context())
	if err != nil {
		abortWithError(c, serviceError("stats_failed", err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

type rebuildRequest struct {
	FAQID int64 `json:"faqId"`
}

// RebuildEmbeddings recomputes vectors after a content edit. With a faqId it
// rebuilds one entry, otherwise it drains the missing-embeddings backlog.
func (h *Handler) RebuildEmbeddings(c *gin.Context) {
	var req rebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	if req.FAQID > 0 {
		if err := h.backfiller.Rebuild(c.Request.Context(), req.FAQID); err != nil {
			abortWithError(c, serviceError("rebuild_failed", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"rebuilt": 1})
		return
	}

	n, err := h.backfiller.RunOnce(c.Request.Context())
	if err != nil {
		abortWithError(c, serviceError("rebuild_failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"rebuilt": n})
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// entryView is the public shape of a FAQ entry. Embeddings stay internal.
type entryView struct {
	ID             int64  `json:"id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Category       string `json:"category,omitempty"`
	Language       string `json:"language"`
	VideoReference string `json:"videoReference,omitempty"`
}

func toEntryView(entry qa.FAQEntry) entryView {
	return entryView{
		ID:             entry.ID,
		Question:       entry.Question,
		Answer:         entry.Answer,
		Category:       entry.Category,
		Language:       entry.Language,
		VideoReference: entry.VideoReference,
	}
}

func toEntryViews(entries []qa.FAQEntry) []entryView {
	views := make([]entryView, len(entries))
	for i, entry := range entries {
		views[i] = toEntryView(entry)
	}
	return views
}

func serviceError(code string, err error) *HTTPError {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case apperrors.IsCode(err, apperrors.CodeUpstreamUnavailable):
		status = http.StatusBadGateway
	case apperrors.IsCode(err, apperrors.CodeRetrievalError),
		apperrors.IsCode(err, apperrors.CodeCacheError):
		status = http.StatusInternalServerError
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func languageQuery(c *gin.Context) string {
	language := c.Query("language")
	if language == "" || language == qa.LanguageAuto {
		return qa.LanguageRussian
	}
	return language
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
