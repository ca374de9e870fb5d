package models

type MatchLevel string

const (
	MatchLevelHigh   MatchLevel = "High"
	MatchLevelMedium MatchLevel = "Medium"
	MatchLevelLow    MatchLevel = "Low"
	MatchLevelError  MatchLevel = "Error"
)

// MatchResult is the outcome for one candidate. A failed candidate carries
// MatchLevelError, zero similarity and a non-empty Error.
type MatchResult struct {
	Rank       int        `json:"rank"`
	Filename   string     `json:"filename"`
	Similarity float64    `json:"similarity"`
	MatchLevel MatchLevel `json:"match_level"`
	Preview    string     `json:"preview,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (r MatchResult) Failed() bool {
	return r.MatchLevel == MatchLevelError
}

type MatchResponse struct {
	Results []MatchResult `json:"results"`
}

type SearchRequest struct {
	JobDescription string `json:"job_description"`
	Limit          int    `json:"limit"`
}

type SearchResult struct {
	DocumentID string     `json:"document_id"`
	Rank       int        `json:"rank"`
	Filename   string     `json:"filename"`
	Similarity float64    `json:"similarity"`
	MatchLevel MatchLevel `json:"match_level"`
	Preview    string     `json:"preview,omitempty"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Format       string `json:"format"`
	Status       string `json:"status"`
}

type DocumentResponse struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	Status       string  `json:"status"`
	Preview      *string `json:"preview,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}
