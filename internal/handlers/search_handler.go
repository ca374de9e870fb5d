package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

type SearchHandler struct {
	indexService services.IndexService
}

func NewSearchHandler(indexService services.IndexService) *SearchHandler {
	return &SearchHandler{indexService: indexService}
}

// HandleSearch handles POST /search against the resume index.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if strings.TrimSpace(req.JobDescription) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description is required",
		})
	}

	results, err := h.indexService.Search(c.UserContext(), req.JobDescription, req.Limit)
	if errors.Is(err, services.ErrEmptyJobDescription) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description has no usable text",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to search resumes: " + err.Error(),
		})
	}

	return c.JSON(models.SearchResponse{Results: results})
}
