//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmission_Validation(t *testing.T) {
	tests := []struct {
		name       string
		submission Submission
		wantErr    bool
		errMsg     string
	}{
		{
			name:       "empty submission is valid",
			submission: Submission{},
			wantErr:    false,
		},
		{
			name: "full submission",
			submission: Submission{
				Name:       "Ada Lovelace",
				Email:      "ada@example.com",
				Skills:     "Python, SQL",
				TargetRole: "Data Engineer",
				JobURL:     "https://boards.greenhouse.io/acme/jobs/1",
			},
			wantErr: false,
		},
		{
			name:       "invalid email",
			submission: Submission{Email: "not-an-email"},
			wantErr:    true,
			errMsg:     "email",
		},
		{
			name:       "invalid job url",
			submission: Submission{JobURL: "not a url"},
			wantErr:    true,
			errMsg:     "url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.submission.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmission_Profile(t *testing.T) {
	s := Submission{
		Summary:            "  Final-year CS student. ",
		Education:          "B.Tech Computer Science",
		Skills:             "Python, SQL ,, Pandas,  ",
		ProjectTitle:       "Student Portal",
		ProjectDescription: "Built a portal with Flask.",
	}

	profile := s.Profile()
	assert.Equal(t, "Final-year CS student.", profile.Summary)
	assert.Equal(t, "B.Tech Computer Science", profile.Education)
	assert.Equal(t, []string{"Python", "SQL", "Pandas"}, profile.Skills)
	require.Len(t, profile.Projects, 1)
	assert.Equal(t, Project{Title: "Student Portal", Description: "Built a portal with Flask."}, profile.Projects[0])
}

func TestSubmission_Profile_ProjectNeedsBothFields(t *testing.T) {
	onlyTitle := Submission{ProjectTitle: "Portal"}
	assert.Empty(t, onlyTitle.Profile().Projects)

	onlyDescription := Submission{ProjectDescription: "Built things"}
	assert.Empty(t, onlyDescription.Profile().Projects)
}

func TestSubmission_Role(t *testing.T) {
	assert.Equal(t, DefaultRole, (&Submission{}).Role())
	assert.Equal(t, DefaultRole, (&Submission{TargetRole: "   "}).Role())
	assert.Equal(t, "Web Developer", (&Submission{TargetRole: " Web Developer "}).Role())
}

func TestSplitSkills(t *testing.T) {
	assert.Nil(t, SplitSkills(""))
	assert.Nil(t, SplitSkills(" , ,"))
	assert.Equal(t, []string{"Go", "Docker"}, SplitSkills("Go,Docker"))
}

func TestScoreResult_JSON(t *testing.T) {
	data, err := json.Marshal(ScoreResult{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": null}`, string(data))

	score := 42.5
	result := ScoreResult{Score: &score, MissingKeywords: []string{"python"}}
	assert.True(t, result.HasScore())

	data, err = json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 42.5, "missing_keywords": ["python"]}`, string(data))
}

func TestValidationMessages(t *testing.T) {
	s := Submission{
		Email:  "nope",
		JobURL: "ftp://example.com/job",
		Name:   strings.Repeat("a", 121),
	}

	msgs := ValidationMessages(s.Validate())

	assert.ElementsMatch(t, []string{
		"name must be at most 120 characters",
		"email must be a valid email address",
		"job_url must be a valid http(s) URL",
	}, msgs)
}

func TestValidationMessages_PDFRequest(t *testing.T) {
	req := PDFRequest{Bullets: make([]string, 21)}
	assert.Equal(t, []string{"bullets must have at most 20 entries"}, ValidationMessages(req.Validate()))

	req = PDFRequest{Bullets: []string{strings.Repeat("x", 2001)}}
	assert.Equal(t, []string{"bullets[0] must be at most 2000 characters"}, ValidationMessages(req.Validate()))

	assert.Nil(t, ValidationMessages(nil))
	assert.Equal(t, []string{"boom"}, ValidationMessages(errors.New("boom")))
}
