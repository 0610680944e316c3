// Package types provides type definitions for structured data used throughout the resume-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxBullets is the maximum number of bullets returned for a single submission.
const MaxBullets = 4

// DefaultRole is used when the submission does not name a target role.
const DefaultRole = "General"

// Project is a single portfolio project entered by the user.
type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Profile is the structured resume input built from one form submission.
// It lives for a single request and is never persisted.
type Profile struct {
	Summary   string    `json:"summary,omitempty"`
	Education string    `json:"education,omitempty"`
	Skills    []string  `json:"skills,omitempty"`
	Projects  []Project `json:"projects,omitempty"`
}

// Submission is the raw form payload, as posted by the HTML form or the JSON API.
type Submission struct {
	Name               string `json:"name" validate:"max=120"`
	Email              string `json:"email" validate:"omitempty,email,max=254"`
	Summary            string `json:"summary" validate:"max=2000"`
	Education          string `json:"education" validate:"max=2000"`
	Skills             string `json:"skills" validate:"max=1000"`
	ProjectTitle       string `json:"project_title" validate:"max=200"`
	ProjectDescription string `json:"project_description" validate:"max=2000"`
	TargetRole         string `json:"target_role" validate:"max=120"`
	JobDescription     string `json:"job_description" validate:"max=20000"`
	JobURL             string `json:"job_url" validate:"omitempty,http_url,max=2048"`
}

// Validate validates the Submission using the validator.
func (s *Submission) Validate() error {
	return newValidator().Struct(s)
}

// newValidator reports fields by their JSON names.
var newValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// ValidationMessages turns a validator error into one readable line per field.
// Other errors are returned as a single message.
func ValidationMessages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", field))
		case "url", "http_url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid http(s) URL", field))
		case "max":
			if fe.Kind() == reflect.Slice {
				msgs = append(msgs, fmt.Sprintf("%s must have at most %s entries", field, fe.Param()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
			}
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return msgs
}

// Profile builds the Profile for this submission.
// A project is only included when both its title and description are present.
func (s *Submission) Profile() Profile {
	profile := Profile{
		Summary:   strings.TrimSpace(s.Summary),
		Education: strings.TrimSpace(s.Education),
		Skills:    SplitSkills(s.Skills),
	}

	title := strings.TrimSpace(s.ProjectTitle)
	description := strings.TrimSpace(s.ProjectDescription)
	if title != "" && description != "" {
		profile.Projects = append(profile.Projects, Project{Title: title, Description: description})
	}

	return profile
}

// Role returns the target role, or DefaultRole when none was given.
func (s *Submission) Role() string {
	return RoleOrDefault(s.TargetRole)
}

// RoleOrDefault trims role and substitutes DefaultRole when it is empty.
func RoleOrDefault(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return DefaultRole
	}
	return role
}

// SplitSkills splits a comma-separated skills string, trimming entries and dropping empties.
func SplitSkills(raw string) []string {
	var skills []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
