package scoring

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/jonathan/resume-builder/internal/types"
	"gonum.org/v1/gonum/stat"
)

// DefaultKeywordCount is how many job-description keywords Analyze reports.
const DefaultKeywordCount = 10

// ScoreKeywords returns the average TF-IDF similarity between the job description
// and each bullet, as a percentage rounded to one decimal.
// ok is false when either input is empty or scoring fails; failures are logged.
func ScoreKeywords(bullets []string, jobDescription string) (score float64, ok bool) {
	if len(bullets) == 0 || jobDescription == "" {
		return 0, false
	}

	space, err := fitWithJob(bullets, jobDescription)
	if err != nil {
		slog.Warn("scoring error", slog.Any("error", err))
		return 0, false
	}
	return averageSimilarity(space), true
}

// Analyze takes the score from ScoreKeywords and adds the top job-description
// keywords (by TF-IDF weight) the bullets cover and miss.
// topN <= 0 uses DefaultKeywordCount.
func Analyze(bullets []string, jobDescription string, topN int) types.ScoreResult {
	score, ok := ScoreKeywords(bullets, jobDescription)
	if !ok {
		return types.ScoreResult{}
	}
	if topN <= 0 {
		topN = DefaultKeywordCount
	}
	result := types.ScoreResult{Score: &score}

	space, err := fitWithJob(bullets, jobDescription)
	if err != nil {
		slog.Warn("keyword extraction error", slog.Any("error", err))
		return result
	}

	for _, col := range topTerms(space.Vectors[0], topN) {
		term := space.Terms[col]
		if coveredByBullets(space, col) {
			result.MatchedKeywords = append(result.MatchedKeywords, term)
		} else {
			result.MissingKeywords = append(result.MissingKeywords, term)
		}
	}
	return result
}

// fitWithJob fits the space over {jobDescription} ∪ bullets; row 0 is the job.
func fitWithJob(bullets []string, jobDescription string) (space *Space, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("vectorization panicked: %v", r)
		}
	}()

	docs := make([]string, 0, len(bullets)+1)
	docs = append(docs, jobDescription)
	docs = append(docs, bullets...)
	return Fit(docs)
}

func averageSimilarity(space *Space) float64 {
	sims := make([]float64, 0, len(space.Vectors)-1)
	for i := 1; i < len(space.Vectors); i++ {
		sims = append(sims, space.Similarity(0, i))
	}
	return roundTo1(stat.Mean(sims, nil) * 100)
}

// topTerms returns the columns of the n highest positive weights in row,
// heaviest first; ties keep vocabulary order.
func topTerms(row []float64, n int) []int {
	var cols []int
	for i, w := range row {
		if w > 0 {
			cols = append(cols, i)
		}
	}
	sort.SliceStable(cols, func(a, b int) bool {
		return row[cols[a]] > row[cols[b]]
	})
	if len(cols) > n {
		cols = cols[:n]
	}
	return cols
}

func coveredByBullets(space *Space, col int) bool {
	for i := 1; i < len(space.Vectors); i++ {
		if space.Vectors[i][col] > 0 {
			return true
		}
	}
	return false
}

// roundTo1 rounds the exact binary value of x to one decimal, ties to even.
// FormatFloat rounds correctly, so 58.25 becomes 58.2 and 0.15 (stored just
// below the tie) becomes 0.1.
func roundTo1(x float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}
