package api

import (
	"net/http"

	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/service"

	"github.com/gin-gonic/gin"
)

// CorpusHandler exposes the published template partitions.
type CorpusHandler struct {
	corpusService service.CorpusService
	log           *logger.Logger
}

func NewCorpusHandler(corpusService service.CorpusService, log *logger.Logger) *CorpusHandler {
	return &CorpusHandler{corpusService: corpusService, log: log.With("handler", "CorpusHandler")}
}

type VersionsResponse struct {
	Versions []string `json:"versions"`
}

type TemplatesResponse struct {
	ScoringVersion string                    `json:"scoringVersion"`
	Templates      []domain.ExerciseTemplate `json:"templates"`
}

// ListVersions godoc
// @Summary List published scoring versions
// @Tags Corpus
// @Produce json
// @Success 200 {object} VersionsResponse
// @Router /corpus/versions [get]
func (h *CorpusHandler) ListVersions(c *gin.Context) {
	versions, err := h.corpusService.Versions(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, h.log, err, "Failed to list scoring versions.")
		return
	}
	if versions == nil {
		versions = []string{}
	}
	c.JSON(http.StatusOK, VersionsResponse{Versions: versions})
}

// ListTemplates godoc
// @Summary List the templates of a scoring version
// @Tags Corpus
// @Produce json
// @Param version path string true "Exact version, semver constraint or latest"
// @Success 200 {object} TemplatesResponse
// @Failure 503 {object} gin.H "Unknown version or corpus unavailable"
// @Router /corpus/{version}/templates [get]
func (h *CorpusHandler) ListTemplates(c *gin.Context) {
	resolved, templates, err := h.corpusService.Templates(c.Request.Context(), c.Param("version"))
	if err != nil {
		abortWithServiceError(c, h.log, err, "Failed to load templates.")
		return
	}
	c.JSON(http.StatusOK, TemplatesResponse{ScoringVersion: resolved, Templates: templates})
}
