package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

type MatchHandler struct {
	matcher     services.MatcherService
	maxFileSize int64
	logger      *zap.Logger
}

func NewMatchHandler(matcher services.MatcherService, maxFileSize int64, l *zap.Logger) *MatchHandler {
	return &MatchHandler{
		matcher:     matcher,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(l),
	}
}

// HandleMatch handles POST /match
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	jobDescription := strings.TrimSpace(formValue(form, "job_description"))
	if jobDescription == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description is required",
		})
	}

	files := collectFiles(form)
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at least one resume file is required in 'resumes' or 'files'",
		})
	}

	uploads := make([]models.Upload, 0, len(files))
	for _, file := range files {
		upload, err := readUpload(file, h.maxFileSize)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		uploads = append(uploads, upload)
	}

	results, err := h.matcher.MatchDocuments(c.UserContext(), jobDescription, uploads)
	switch {
	case errors.Is(err, services.ErrNoCandidates):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "none of the uploaded files contained extractable text",
		})
	case errors.Is(err, services.ErrEmptyJobDescription):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description has no usable text",
		})
	case err != nil:
		h.logger.Error("match failed", zap.Int("files", len(uploads)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to match resumes: " + err.Error(),
		})
	}

	return c.JSON(models.MatchResponse{Results: results})
}
