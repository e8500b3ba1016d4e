package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"paper-pal/api/internal/llm"
	"paper-pal/api/internal/paper/types"
	"paper-pal/api/internal/prompt"
	"paper-pal/api/internal/util"
)

// Fields is the decoded top level of the model's object, used for presence checks.
type Fields map[string]json.RawMessage

// Task describes one generation: how its result is checked and what to
// return when generation fails. A nil Fallback makes failures surface as errors.
type Task[T any] struct {
	Kind     types.TaskKind
	Validate func(f Fields, v *T) error
	Fallback func() T
}

// Outcome reports how a Run ended.
type Outcome struct {
	Engine   string
	Model    string
	FellBack bool
	Reason   string
	Err      error
	Elapsed  time.Duration
}

// Normalizer turns one request into one typed result.
type Normalizer struct {
	engines *llm.Engines
	prompts *prompt.Library
	log     *logrus.Logger
}

func New(engines *llm.Engines, prompts *prompt.Library, log *logrus.Logger) *Normalizer {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Normalizer{engines: engines, prompts: prompts, log: log}
}

// Engines exposes the registry for callers that need to resolve names up front.
func (n *Normalizer) Engines() *llm.Engines { return n.engines }

// Run validates req, makes exactly one completion call and decodes the first
// JSON object of the reply into T. Request and engine errors are returned;
// anything after that is replaced by task.Fallback.
func Run[T any](ctx context.Context, n *Normalizer, task Task[T], req types.GenerationRequest) (T, Outcome, error) {
	var zero T
	if req.Task == "" {
		req.Task = task.Kind
	}
	if req.Task != task.Kind {
		return zero, Outcome{}, fmt.Errorf("%w: task %q for %s pipeline", types.ErrInvalidField, req.Task, task.Kind)
	}
	if err := req.Validate(); err != nil {
		return zero, Outcome{}, err
	}
	eng, err := n.engines.GetEngine(req.LLMName)
	if err != nil {
		return zero, Outcome{}, err
	}
	p, err := n.prompts.Build(task.Kind, req.SkillLevel, req.SourceText)
	if err != nil {
		return zero, Outcome{}, err
	}

	out := Outcome{Engine: eng.Name(), Model: eng.GetModel()}
	entry := n.log.WithFields(logrus.Fields{
		"task":   task.Kind,
		"engine": out.Engine,
		"model":  out.Model,
		"level":  req.SkillLevel,
		"chars":  len(req.SourceText),
	})

	started := time.Now()
	raw, err := eng.Complete(ctx, p, req.Credential)
	out.Elapsed = time.Since(started)
	if err == nil {
		entry.WithField("raw", util.Truncate(raw, 500)).Debug("completion received")
		var v T
		if v, err = decode(raw, task); err == nil {
			entry.WithField("elapsed", out.Elapsed.String()).Info("generation ok")
			return v, out, nil
		}
	}

	out.Err = err
	out.Reason = Classify(err)
	if task.Fallback == nil {
		entry.WithError(err).WithField("reason", out.Reason).Error("generation failed")
		return zero, out, fmt.Errorf("%s: %w", task.Kind, err)
	}
	out.FellBack = true
	entry.WithError(err).WithField("reason", out.Reason).Warn("generation failed, using fallback")
	return task.Fallback(), out, nil
}

func decode[T any](raw string, task Task[T]) (T, error) {
	var v T
	obj, err := util.ExtractFirstJSONObject(util.StripCodeFences(strings.TrimSpace(raw)))
	if err != nil {
		return v, err
	}
	var f Fields
	if err := json.Unmarshal([]byte(obj), &f); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	if task.Validate != nil {
		if err := task.Validate(f, &v); err != nil {
			return v, err
		}
	}
	return v, nil
}

// requireKeys reports the first key that is absent or null.
func requireKeys(f Fields, keys ...string) error {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("%w: missing %q", ErrShapeMismatch, k)
		}
	}
	return nil
}

func nested(f Fields, key string) (Fields, error) {
	var sub Fields
	if err := json.Unmarshal(f[key], &sub); err != nil || sub == nil {
		return nil, fmt.Errorf("%w: %q is not an object", ErrShapeMismatch, key)
	}
	return sub, nil
}

func emptyIfNil[E any](s []E) []E {
	if s == nil {
		return []E{}
	}
	return s
}

// Generate dispatches on req.Task for callers that only need JSON out.
func Generate(ctx context.Context, n *Normalizer, req types.GenerationRequest) (any, Outcome, error) {
	switch req.Task {
	case types.TaskSummary:
		return erase(Run(ctx, n, SummaryTask, req))
	case types.TaskQuiz:
		return erase(Run(ctx, n, QuizTask, req))
	case types.TaskApplications:
		return erase(Run(ctx, n, ApplicationsTask, req))
	}
	return nil, Outcome{}, fmt.Errorf("%w: task %q", types.ErrInvalidField, req.Task)
}

func erase[T any](v T, o Outcome, err error) (any, Outcome, error) {
	if err != nil {
		return nil, o, err
	}
	return v, o, nil
}
