package types

// BulletSource records where a set of bullets came from.
type BulletSource string

const (
	// SourceGenerated marks bullets parsed from model output
	SourceGenerated BulletSource = "generated"
	// SourceFallback marks the deterministic template bullets
	SourceFallback BulletSource = "fallback"
)

// GenerationResult is the always-present output of the bullet pipeline.
type GenerationResult struct {
	Bullets []string     `json:"bullets"`
	Source  BulletSource `json:"source"`
	Reason  string       `json:"reason,omitempty"` // why the fallback was used
}

// ScoreResult is the keyword match between bullets and a job description.
// Score is nil when no job description or no bullets were supplied, or scoring failed.
type ScoreResult struct {
	Score           *float64 `json:"score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	MissingKeywords []string `json:"missing_keywords,omitempty"`
}

// HasScore reports whether a numeric score is available.
func (r ScoreResult) HasScore() bool {
	return r.Score != nil
}
