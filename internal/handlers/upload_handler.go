package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	worker         services.Worker
	maxFileSize    int64
	logger         *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	worker services.Worker,
	maxFileSize int64,
	l *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		worker:         worker,
		maxFileSize:    maxFileSize,
		logger:         logger.OrNop(l),
	}
}

// HandleUpload handles POST /documents. Every accepted resume is queued for indexing.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	files := collectFiles(form)
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No valid files uploaded. Please upload 'resumes' as PDF, DOCX or TXT files.",
		})
	}

	// Reject the whole request before anything is stored.
	for _, file := range files {
		if models.DetectFormat(file.Filename) == models.FormatUnknown {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("unsupported file type: %s", file.Filename),
			})
		}
		if err := checkFileSize(file, h.maxFileSize); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	responses := make([]models.UploadResponse, 0, len(files))
	for _, file := range files {
		upload, err := readUpload(file, h.maxFileSize)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		filename, filePath, err := h.storageService.SaveFile(upload.Filename, upload.Content)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save file: %v", err),
			})
		}

		doc := models.Document{
			ID:               uuid.New(),
			Filename:         filename,
			OriginalFileName: upload.Filename,
			Format:           models.DetectFormat(upload.Filename),
			FilePath:         filePath,
			Status:           models.StatusQueued,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}

		if err := h.docRepo.Create(&doc); err != nil {
			// Cleanup uploaded file if database insert fails
			if delErr := h.storageService.DeleteFile(filename); delErr != nil {
				h.logger.Warn("failed to clean up stored file", zap.String("filename", filename), zap.Error(delErr))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save document record: %v", err),
			})
		}

		h.worker.EnqueueJob(doc.ID)

		responses = append(responses, models.UploadResponse{
			ID:           doc.ID.String(),
			Filename:     doc.Filename,
			OriginalName: doc.OriginalFileName,
			Format:       string(doc.Format),
			Status:       string(doc.Status),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Files uploaded successfully",
		"documents": responses,
	})
}
