package evaluation

import (
	"math"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/career-metric/internal/schemas"
	"github.com/jonathan/career-metric/internal/scoring"
)

// githubUsernamePattern matches GitHub logins: alphanumerics and single
// inner hyphens, at most 39 characters.
var githubUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)

// Request is the input of one evaluation. Category ratings default to 0.
// Optional inputs that are empty count as absent.
type Request struct {
	Academic       float64        `json:"academic" validate:"finite"`
	Technical      float64        `json:"technical" validate:"finite"`
	SoftSkills     float64        `json:"soft_skills" validate:"finite"`
	Experience     float64        `json:"experience" validate:"finite"`
	Integrations   float64        `json:"integrations" validate:"finite"`
	ResumeHTML     *string        `json:"resume_html,omitempty"`
	GitHubUsername *string        `json:"github_username,omitempty" validate:"omitempty,github_username"`
	LinkedInData   map[string]any `json:"linkedin_data,omitempty"`
	CPRatings      []int          `json:"cp_ratings,omitempty" validate:"omitempty,dive,min=0"`
}

// Inputs returns the category ratings as scoring inputs.
func (r Request) Inputs() scoring.Inputs {
	return scoring.Inputs{
		Academic:     r.Academic,
		Technical:    r.Technical,
		SoftSkills:   r.SoftSkills,
		Experience:   r.Experience,
		Integrations: r.Integrations,
	}
}

func (r Request) hasResume() bool   { return r.ResumeHTML != nil && *r.ResumeHTML != "" }
func (r Request) hasGitHub() bool   { return r.GitHubUsername != nil && *r.GitHubUsername != "" }
func (r Request) hasLinkedIn() bool { return len(r.LinkedInData) > 0 }
func (r Request) hasCP() bool       { return len(r.CPRatings) > 0 }

// newValidator returns a validator with the request's custom tags registered.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	// An empty username is absent input, not a malformed one.
	_ = v.RegisterValidation("github_username", func(fl validator.FieldLevel) bool {
		username := fl.Field().String()
		return username == "" || githubUsernamePattern.MatchString(username)
	})
	return v
}

// validateRequest checks struct tags and the LinkedIn payload shape.
func validateRequest(v *validator.Validate, req *Request) error {
	if err := v.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return &ValidationError{Field: fe.Field(), Message: fe.Tag(), Cause: err}
		}
		return &ValidationError{Message: "invalid request", Cause: err}
	}

	if req.hasLinkedIn() {
		if err := schemas.ValidateLinkedIn(req.LinkedInData); err != nil {
			msg := err.Error()
			if schemaErr, ok := err.(*schemas.ValidationError); ok && len(schemaErr.Errors) > 0 {
				msg = schemaErr.Messages()[0]
			}
			return &ValidationError{Field: "linkedin_data", Message: msg, Cause: err}
		}
	}
	return nil
}
