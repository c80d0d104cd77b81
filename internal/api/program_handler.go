package api

import (
	"net/http"

	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/service"

	"github.com/gin-gonic/gin"
)

// ProgramHandler serves program generation.
type ProgramHandler struct {
	programService service.ProgramService
	log            *logger.Logger
}

func NewProgramHandler(programService service.ProgramService, log *logger.Logger) *ProgramHandler {
	return &ProgramHandler{programService: programService, log: log.With("handler", "ProgramHandler")}
}

// --- DTOs for API ---

// GenerateProgramRequest is the assessment profile. Level may be a number or a
// numeric string; it is clamped to 1..3.
type GenerateProgramRequest struct {
	Level                  any      `json:"level"`
	FocusTags              []string `json:"focusTags"`
	AvoidTags              []string `json:"avoidTags"`
	DailyTimeBudgetMinutes int      `json:"dailyTimeBudgetMinutes" binding:"min=0"`
	Confidence             *int     `json:"confidence" binding:"omitempty,min=0,max=100"`
	ScoringVersion         string   `json:"scoringVersion"`
}

// ProgramResponse is the generated program with resolved media URLs.
type ProgramResponse struct {
	*domain.Program
	MediaURLs map[string]string `json:"mediaUrls,omitempty"`
}

// --- Handler Methods ---

// GenerateProgram godoc
// @Summary Generate a 7-day movement program
// @Tags Programs
// @Accept json
// @Produce json
// @Param profile body GenerateProgramRequest true "Assessment profile"
// @Success 200 {object} ProgramResponse
// @Failure 400 {object} gin.H "Invalid profile"
// @Failure 503 {object} gin.H "Corpus unavailable"
// @Router /programs [post]
func (h *ProgramHandler) GenerateProgram(c *gin.Context) {
	var req GenerateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	level, err := domain.ParseLevel(req.Level)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.programService.Generate(c.Request.Context(), service.GenerateRequest{
		Profile: domain.UserProgramProfile{
			Level:                  level,
			FocusTags:              req.FocusTags,
			AvoidTags:              req.AvoidTags,
			DailyTimeBudgetMinutes: req.DailyTimeBudgetMinutes,
			Confidence:             req.Confidence,
		},
		ScoringVersion: req.ScoringVersion,
	})
	if err != nil {
		abortWithServiceError(c, h.log, err, "Failed to generate program.")
		return
	}

	if userID := getUserIDFromContext(c); userID != "" {
		h.log.Debug("Program issued", "user_id", userID, "program_id", result.Program.ID)
	}
	c.JSON(http.StatusOK, ProgramResponse{Program: result.Program, MediaURLs: result.MediaURLs})
}
