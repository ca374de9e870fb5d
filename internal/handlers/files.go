package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"alfredoptarigan/resume-matcher/internal/models"
)

// resumeFileFields are the multipart fields that may carry resume files.
var resumeFileFields = []string{"resumes", "files"}

func collectFiles(form *multipart.Form) []*multipart.FileHeader {
	var files []*multipart.FileHeader
	for _, field := range resumeFileFields {
		files = append(files, form.File[field]...)
	}
	return files
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func checkFileSize(file *multipart.FileHeader, maxFileSize int64) error {
	if maxFileSize > 0 && file.Size > maxFileSize {
		return fmt.Errorf("file %s too large. Max size: %d bytes", file.Filename, maxFileSize)
	}
	return nil
}

func readUpload(file *multipart.FileHeader, maxFileSize int64) (models.Upload, error) {
	if err := checkFileSize(file, maxFileSize); err != nil {
		return models.Upload{}, err
	}

	src, err := file.Open()
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to open uploaded file %s: %w", file.Filename, err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to read uploaded file %s: %w", file.Filename, err)
	}

	return models.Upload{Filename: file.Filename, Content: content}, nil
}
