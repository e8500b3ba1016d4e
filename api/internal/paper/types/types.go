package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField is returned when a field is present but not understood.
	ErrInvalidField = errors.New("invalid field")
)

// TaskKind selects which generation the pipeline performs.
type TaskKind string

const (
	TaskSummary      TaskKind = "summary"
	TaskQuiz         TaskKind = "quiz"
	TaskApplications TaskKind = "applications"
)

func (k TaskKind) Valid() bool {
	switch k {
	case TaskSummary, TaskQuiz, TaskApplications:
		return true
	}
	return false
}

// SkillLevel is the audience tier used to condition prompt wording.
type SkillLevel string

const (
	HighSchool    SkillLevel = "highschool"
	Undergraduate SkillLevel = "undergraduate"
	Graduate      SkillLevel = "graduate"
)

// Label is the human wording used inside prompts.
func (l SkillLevel) Label() string {
	switch l {
	case HighSchool:
		return "high school"
	case Graduate:
		return "graduate"
	default:
		return "undergraduate"
	}
}

// ParseSkillLevel accepts the spellings the web UI and the bot send.
// Empty input means undergraduate, the UI default.
func ParseSkillLevel(s string) (SkillLevel, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	switch v {
	case "":
		return Undergraduate, nil
	case "highschool", "hs":
		return HighSchool, nil
	case "undergraduate", "undergrad", "ug":
		return Undergraduate, nil
	case "graduate", "grad", "postgraduate":
		return Graduate, nil
	}
	return "", fmt.Errorf("%w: skillLevel %q (use highschool|undergraduate|graduate)", ErrInvalidField, s)
}

// GenerationRequest is one pipeline invocation.
type GenerationRequest struct {
	Task       TaskKind
	SourceText string
	Credential string
	SkillLevel SkillLevel
	LLMName    string
}

// Validate rejects the request before any network call.
func (r GenerationRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.SourceText) == "" {
		missing = append(missing, "sourceText")
	}
	if strings.TrimSpace(r.Credential) == "" {
		missing = append(missing, "credential")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if !r.Task.Valid() {
		return fmt.Errorf("%w: task %q", ErrInvalidField, r.Task)
	}
	return nil
}

// PromptSpec is derived deterministically from a request.
type PromptSpec struct {
	SystemInstructions string
	UserContent        string
}

// ErrorBody is the JSON error shape returned to the UI.
type ErrorBody struct {
	Error string `json:"error"`
}
