package normalize

import (
	"fmt"

	"paper-pal/api/internal/paper/types"
)

var SummaryTask = Task[types.SummaryResult]{
	Kind:     types.TaskSummary,
	Validate: validateSummary,
	Fallback: SummaryFallback,
}

var QuizTask = Task[types.QuizResult]{
	Kind:     types.TaskQuiz,
	Validate: validateQuiz,
	Fallback: QuizFallback,
}

var ApplicationsTask = Task[types.ApplicationsResult]{
	Kind:     types.TaskApplications,
	Validate: validateApplications,
	Fallback: ApplicationsFallback,
}

func validateSummary(f Fields, v *types.SummaryResult) error {
	if err := requireKeys(f, "title", "authors", "abstract", "simplifiedSummary", "keyPoints", "figures", "deepDive"); err != nil {
		return err
	}
	dd, err := nested(f, "deepDive")
	if err != nil {
		return err
	}
	if err := requireKeys(dd, "methodology", "results", "implications", "technicalDetails", "context"); err != nil {
		return fmt.Errorf("deepDive: %w", err)
	}
	v.KeyPoints = emptyIfNil(v.KeyPoints)
	v.Figures = emptyIfNil(v.Figures)
	for i := range v.Figures {
		if v.Figures[i].ID == 0 {
			v.Figures[i].ID = i + 1
		}
	}
	return nil
}

func validateQuiz(f Fields, v *types.QuizResult) error {
	if err := requireKeys(f, "questions"); err != nil {
		return err
	}
	if len(v.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrShapeMismatch)
	}
	for i := range v.Questions {
		q := &v.Questions[i]
		if q.Question == "" {
			return fmt.Errorf("%w: question %d is empty", ErrShapeMismatch, i+1)
		}
		switch q.Type {
		case types.QuestionMultipleChoice:
			if len(q.Options) < 2 {
				return fmt.Errorf("%w: question %d has %d options", ErrShapeMismatch, i+1, len(q.Options))
			}
			if q.CorrectAnswer == nil || *q.CorrectAnswer < 0 || *q.CorrectAnswer >= len(q.Options) {
				return fmt.Errorf("%w: question %d correctAnswer out of range", ErrShapeMismatch, i+1)
			}
		case types.QuestionText:
			q.CorrectKeywords = emptyIfNil(q.CorrectKeywords)
		default:
			return fmt.Errorf("%w: question %d has type %q", ErrShapeMismatch, i+1, q.Type)
		}
		if q.ID == 0 {
			q.ID = i + 1
		}
	}
	return nil
}

func validateApplications(f Fields, v *types.ApplicationsResult) error {
	if err := requireKeys(f, "applications"); err != nil {
		return err
	}
	apps, err := nested(f, "applications")
	if err != nil {
		return err
	}
	if err := requireKeys(apps, "projectIdeas", "industryApplications", "researchDirections", "blogTopics"); err != nil {
		return fmt.Errorf("applications: %w", err)
	}
	a := &v.Applications
	a.ProjectIdeas = emptyIfNil(a.ProjectIdeas)
	a.IndustryApplications = emptyIfNil(a.IndustryApplications)
	a.ResearchDirections = emptyIfNil(a.ResearchDirections)
	a.BlogTopics = emptyIfNil(a.BlogTopics)
	return nil
}
