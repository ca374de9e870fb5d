package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

// IndexService embeds stored resumes into the vector index and ranks indexed
// resumes against a job description.
type IndexService interface {
	IndexDocument(ctx context.Context, docID uuid.UUID) error
	Search(ctx context.Context, jobDescription string, limit int) ([]models.SearchResult, error)
	// DeleteDocument removes the resume's vector, stored file and record.
	DeleteDocument(ctx context.Context, docID uuid.UUID) error
}

type indexService struct {
	docRepo       repositories.DocumentRepository
	storage       StorageService
	extractor     TextExtractor
	embedder      EmbeddingProvider
	index         VectorIndex
	topN          int
	previewLength int
	logger        *zap.Logger
}

func NewIndexService(
	docRepo repositories.DocumentRepository,
	storage StorageService,
	extractor TextExtractor,
	embedder EmbeddingProvider,
	index VectorIndex,
	opts MatcherOptions,
	l *zap.Logger,
) IndexService {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	return &indexService{
		docRepo:       docRepo,
		storage:       storage,
		extractor:     extractor,
		embedder:      embedder,
		index:         index,
		topN:          opts.TopN,
		previewLength: opts.PreviewLength,
		logger:        logger.OrNop(l),
	}
}

// IndexDocument implements IndexService.
func (s *indexService) IndexDocument(ctx context.Context, docID uuid.UUID) error {
	if err := s.docRepo.UpdateStatus(docID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	doc, err := s.docRepo.FindByID(docID)
	if err != nil {
		return s.fail(docID, fmt.Errorf("failed to get document: %w", err))
	}

	content, err := s.storage.ReadFile(doc.Filename)
	if err != nil {
		return s.fail(docID, err)
	}

	raw := s.extractor.ExtractText(content, doc.OriginalFileName)
	normalized := PreprocessText(raw)
	if normalized == "" {
		return s.fail(docID, fmt.Errorf("no extractable text in %s", doc.OriginalFileName))
	}

	embedding, err := s.embedder.Embed(ctx, CleanText(normalized))
	if err != nil {
		return s.fail(docID, fmt.Errorf("failed to embed resume: %w", err))
	}

	if err := s.index.UpsertResume(ctx, docID, doc.OriginalFileName, embedding); err != nil {
		return s.fail(docID, err)
	}

	if err := s.docRepo.MarkIndexed(docID, logger.TruncateForLog(raw, s.previewLength)); err != nil {
		return fmt.Errorf("failed to save index status: %w", err)
	}

	s.logger.Info("resume indexed",
		zap.String("document_id", docID.String()),
		zap.String("filename", doc.OriginalFileName),
		zap.Int("normalized_length", len(normalized)),
	)
	return nil
}

func (s *indexService) fail(docID uuid.UUID, err error) error {
	if updateErr := s.docRepo.UpdateError(docID, err.Error()); updateErr != nil {
		s.logger.Error("failed to record indexing error", zap.String("document_id", docID.String()), zap.Error(updateErr))
	}
	return err
}

// DeleteDocument implements IndexService.
func (s *indexService) DeleteDocument(ctx context.Context, docID uuid.UUID) error {
	doc, err := s.docRepo.FindByID(docID)
	if err != nil {
		return err
	}

	if err := s.index.DeleteResume(ctx, docID); err != nil {
		return err
	}

	if err := s.storage.DeleteFile(doc.Filename); err != nil {
		s.logger.Warn("failed to delete stored resume", zap.String("filename", doc.Filename), zap.Error(err))
	}

	if err := s.docRepo.Delete(docID); err != nil {
		return err
	}

	s.logger.Info("resume deleted", zap.String("document_id", docID.String()))
	return nil
}

// Search implements IndexService.
func (s *indexService) Search(ctx context.Context, jobDescription string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	query := CleanText(jobDescription)
	if query == "" {
		return nil, ErrEmptyJobDescription
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if errors.Is(err, ErrEmptyText) {
		return nil, ErrEmptyJobDescription
	}
	if err != nil {
		return nil, fmt.Errorf("failed to embed job description: %w", err)
	}

	hits, err := s.index.SearchSimilar(ctx, queryVec, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(hits))
	for i, hit := range hits {
		ids[i] = hit.DocumentID
	}

	docs, err := s.docRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		similarity := ScorePercent(float64(hit.Score))
		result := models.SearchResult{
			DocumentID: hit.DocumentID.String(),
			Filename:   hit.Filename,
			Similarity: similarity,
			MatchLevel: MatchLevelFor(similarity),
		}
		if doc, ok := byID[hit.DocumentID]; ok {
			result.Filename = doc.OriginalFileName
			if doc.Preview != nil {
				result.Preview = *doc.Preview
			}
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	return results, nil
}
