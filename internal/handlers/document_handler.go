package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

type DocumentHandler struct {
	docRepo      repositories.DocumentRepository
	indexService services.IndexService
}

func NewDocumentHandler(docRepo repositories.DocumentRepository, indexService services.IndexService) *DocumentHandler {
	return &DocumentHandler{
		docRepo:      docRepo,
		indexService: indexService,
	}
}

func (h *DocumentHandler) HandleGetDocument(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID format",
		})
	}

	doc, err := h.docRepo.FindByID(docID)
	if errors.Is(err, repositories.ErrDocumentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		return err
	}

	response := models.DocumentResponse{
		ID:       doc.ID.String(),
		Filename: doc.OriginalFileName,
		Status:   string(doc.Status),
	}

	if doc.Status == models.StatusIndexed {
		response.Preview = doc.Preview
	}

	if doc.Status == models.StatusFailed {
		response.ErrorMessage = doc.ErrorMessage
	}

	return c.JSON(response)
}

// HandleDeleteDocument removes an indexed resume.
func (h *DocumentHandler) HandleDeleteDocument(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID format",
		})
	}

	err = h.indexService.DeleteDocument(c.UserContext(), docID)
	if errors.Is(err, repositories.ErrDocumentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete document: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Document deleted",
		"id":      docID.String(),
	})
}
