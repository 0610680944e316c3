package types

// ScoreRequest asks for the keyword score of existing bullets.
type ScoreRequest struct {
	Bullets        []string `json:"bullets"`
	JobDescription string   `json:"job_description"`
}

// PDFRequest is a submission plus the bullets to print.
// When Bullets is empty the bullets are generated first.
type PDFRequest struct {
	Submission
	Bullets []string `json:"bullets,omitempty" validate:"max=20,dive,max=2000"`
}

// Validate checks the submission fields and the bullet limits.
func (r *PDFRequest) Validate() error {
	return newValidator().Struct(r)
}
