package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-pal/api/internal/llm"
	"paper-pal/api/internal/llm/openrouter"
	"paper-pal/api/internal/paper/types"
	"paper-pal/api/internal/prompt"
	"paper-pal/api/internal/util"
)

type stubEngine struct {
	reply string
	err   error
	calls atomic.Int32
}

func (s *stubEngine) Name() string     { return "stub" }
func (s *stubEngine) GetModel() string { return "stub-1" }
func (s *stubEngine) Complete(ctx context.Context, p types.PromptSpec, credential string) (string, error) {
	s.calls.Add(1)
	return s.reply, s.err
}

func newNormalizer(e llm.Engine) *Normalizer {
	return New(llm.NewEngines(e.Name(), e), prompt.MustDefault(), nil)
}

// routerServer answers every chat completion with content, or with status when non-zero.
func routerServer(t *testing.T, status int, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		resp := map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": content}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func routerNormalizer(url string) *Normalizer {
	e := openrouter.New(openrouter.Options{BaseURL: url, Model: "m", Sampling: llm.Sampling{Temperature: 0.3, MaxTokens: 3000}}, nil)
	return newNormalizer(e)
}

const fullSummary = `{"title":"T","authors":"A","abstract":"Ab","simplifiedSummary":"S",
"keyPoints":["k1","k2","k3","k4"],
"figures":[{"id":1,"title":"F","description":"D","url":"u"}],
"deepDive":{"methodology":"m","results":"r","implications":"i","technicalDetails":"t","context":"c"}}`

func req(task types.TaskKind) types.GenerationRequest {
	return types.GenerationRequest{
		Task:       task,
		SourceText: "Abstract... 1. Introduction...",
		Credential: "k",
		SkillLevel: types.Undergraduate,
	}
}

func TestScenario_SummaryFromProse(t *testing.T) {
	srv, calls := routerServer(t, 0, "Here you go: "+fullSummary+" Hope this helps!")
	n := routerNormalizer(srv.URL)

	got, out, err := Run(context.Background(), n, SummaryTask, req(types.TaskSummary))
	require.NoError(t, err)
	assert.False(t, out.FellBack)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "t", got.DeepDive.TechnicalDetails)
	assert.EqualValues(t, 1, calls.Load())
}

func TestScenario_QuizUpstream500(t *testing.T) {
	srv, _ := routerServer(t, http.StatusInternalServerError, "")
	n := routerNormalizer(srv.URL)

	got, out, err := Run(context.Background(), n, QuizTask, req(types.TaskQuiz))
	require.NoError(t, err)
	assert.True(t, out.FellBack)
	assert.Equal(t, ReasonUpstream, out.Reason)
	assert.Equal(t, QuizFallback(), got)
	require.Len(t, got.Questions, 2)
}

func TestScenario_ApplicationsNotJSON(t *testing.T) {
	srv, _ := routerServer(t, 0, "not json at all")
	n := routerNormalizer(srv.URL)

	got, out, err := Run(context.Background(), n, ApplicationsTask, req(types.TaskApplications))
	require.NoError(t, err)
	assert.True(t, out.FellBack)
	assert.Equal(t, ReasonNoJSON, out.Reason)
	assert.Equal(t, []string{
		"Build a proof-of-concept implementation",
		"Create a visualization tool for the concepts",
		"Develop a comparison framework",
	}, got.Applications.ProjectIdeas)
}

func TestSummaryFallsBackOnUpstreamFailure(t *testing.T) {
	srv, _ := routerServer(t, http.StatusBadGateway, "")
	got, out, err := Run(context.Background(), routerNormalizer(srv.URL), SummaryTask, req(types.TaskSummary))
	require.NoError(t, err)
	assert.True(t, out.FellBack)
	assert.Equal(t, SummaryFallback(), got)
}

func TestMissingFieldMakesNoCall(t *testing.T) {
	cases := []types.GenerationRequest{
		{Task: types.TaskQuiz, SourceText: "", Credential: "k"},
		{Task: types.TaskQuiz, SourceText: "text", Credential: ""},
		{Task: types.TaskQuiz, SourceText: "   ", Credential: "  "},
	}
	for _, r := range cases {
		e := &stubEngine{reply: "{}"}
		_, _, err := Run(context.Background(), newNormalizer(e), QuizTask, r)
		assert.ErrorIs(t, err, types.ErrMissingField)
		assert.EqualValues(t, 0, e.calls.Load())
	}
}

func TestUnknownEngineIsClientError(t *testing.T) {
	e := &stubEngine{reply: fullSummary}
	r := req(types.TaskSummary)
	r.LLMName = "claude"
	_, _, err := Run(context.Background(), newNormalizer(e), SummaryTask, r)
	assert.ErrorIs(t, err, types.ErrInvalidField)
	assert.EqualValues(t, 0, e.calls.Load())
}

func TestTaskMismatch(t *testing.T) {
	e := &stubEngine{reply: fullSummary}
	_, _, err := Run(context.Background(), newNormalizer(e), SummaryTask, req(types.TaskQuiz))
	assert.ErrorIs(t, err, types.ErrInvalidField)
}

func TestIdempotentAgainstDeterministicStub(t *testing.T) {
	e := &stubEngine{reply: "```json\n" + fullSummary + "\n```"}
	n := newNormalizer(e)
	a, _, err := Run(context.Background(), n, SummaryTask, req(types.TaskSummary))
	require.NoError(t, err)
	b, _, err := Run(context.Background(), n, SummaryTask, req(types.TaskSummary))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUnbalancedFallsBack(t *testing.T) {
	for _, raw := range []string{`{"questions": [`, `no braces`, `}{`} {
		e := &stubEngine{reply: raw}
		got, out, err := Run(context.Background(), newNormalizer(e), QuizTask, req(types.TaskQuiz))
		require.NoError(t, err)
		assert.True(t, out.FellBack, raw)
		assert.Equal(t, ReasonNoJSON, out.Reason, raw)
		assert.Equal(t, QuizFallback(), got)
	}
}

func TestShapeChecks(t *testing.T) {
	cases := []struct {
		name   string
		task   types.TaskKind
		reply  string
		reason string
	}{
		{"summary missing deepDive", types.TaskSummary, `{"title":"T","authors":"A","abstract":"x","simplifiedSummary":"s","keyPoints":[],"figures":[]}`, ReasonShapeMismatch},
		{"summary deepDive missing context", types.TaskSummary, `{"title":"T","authors":"A","abstract":"x","simplifiedSummary":"s","keyPoints":[],"figures":[],"deepDive":{"methodology":"m","results":"r","implications":"i","technicalDetails":"t"}}`, ReasonShapeMismatch},
		{"summary keyPoints wrong type", types.TaskSummary, `{"title":"T","authors":"A","abstract":"x","simplifiedSummary":"s","keyPoints":"one","figures":[],"deepDive":{"methodology":"m","results":"r","implications":"i","technicalDetails":"t","context":"c"}}`, ReasonShapeMismatch},
		{"quiz empty", types.TaskQuiz, `{"questions":[]}`, ReasonShapeMismatch},
		{"quiz bad type", types.TaskQuiz, `{"questions":[{"id":1,"type":"essay","question":"q"}]}`, ReasonShapeMismatch},
		{"quiz answer out of range", types.TaskQuiz, `{"questions":[{"id":1,"type":"multiple-choice","question":"q","options":["a","b"],"correctAnswer":2}]}`, ReasonShapeMismatch},
		{"quiz no answer", types.TaskQuiz, `{"questions":[{"id":1,"type":"multiple-choice","question":"q","options":["a","b"]}]}`, ReasonShapeMismatch},
		{"applications missing list", types.TaskApplications, `{"applications":{"projectIdeas":[],"industryApplications":[],"researchDirections":[]}}`, ReasonShapeMismatch},
		{"applications not object", types.TaskApplications, `{"applications":["a"]}`, ReasonShapeMismatch},
		{"malformed", types.TaskApplications, `{"applications": {"projectIdeas": [1,]}}`, ReasonMalformedJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &stubEngine{reply: tc.reply}
			r := req(tc.task)
			_, out, err := Generate(context.Background(), newNormalizer(e), r)
			require.NoError(t, err)
			assert.True(t, out.FellBack)
			assert.Equal(t, tc.reason, out.Reason)
		})
	}
}

func TestNilListsBecomeEmpty(t *testing.T) {
	e := &stubEngine{reply: `{"applications":{"projectIdeas":["p"],"industryApplications":[],"researchDirections":["r"],"blogTopics":["b"]}}`}
	got, out, err := Run(context.Background(), newNormalizer(e), ApplicationsTask, req(types.TaskApplications))
	require.NoError(t, err)
	assert.False(t, out.FellBack)
	assert.NotNil(t, got.Applications.IndustryApplications)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"industryApplications":[]`)
}

func TestQuizFillsMissingIDs(t *testing.T) {
	e := &stubEngine{reply: `{"questions":[{"type":"text","question":"why?","explanation":"e"},{"type":"multiple-choice","question":"q","options":["a","b","c","d"],"correctAnswer":0}]}`}
	got, _, err := Run(context.Background(), newNormalizer(e), QuizTask, req(types.TaskQuiz))
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, 1, got.Questions[0].ID)
	assert.Equal(t, 2, got.Questions[1].ID)
	assert.Equal(t, []string{}, got.Questions[0].CorrectKeywords)
}

func TestBraceInsideStringSurvives(t *testing.T) {
	reply := `{"applications":{"projectIdeas":["Write a {parser} for it"],"industryApplications":["x"],"researchDirections":["y"],"blogTopics":["z}"]}}`
	e := &stubEngine{reply: reply}
	got, out, err := Run(context.Background(), newNormalizer(e), ApplicationsTask, req(types.TaskApplications))
	require.NoError(t, err)
	assert.False(t, out.FellBack)
	assert.Equal(t, []string{"z}"}, got.Applications.BlogTopics)
}

func TestNoFallbackSurfacesError(t *testing.T) {
	task := Task[types.QuizResult]{Kind: types.TaskQuiz, Validate: validateQuiz}
	e := &stubEngine{err: &llm.UpstreamError{Provider: "stub", StatusCode: 503, Body: "down"}}
	_, out, err := Run(context.Background(), newNormalizer(e), task, req(types.TaskQuiz))
	require.Error(t, err)
	assert.Equal(t, ReasonUpstream, out.Reason)
	var up *llm.UpstreamError
	assert.True(t, errors.As(err, &up))
}

func TestFallbacksAreFreshCopies(t *testing.T) {
	a := SummaryFallback()
	a.KeyPoints[0] = "changed"
	a.Figures[0].Title = "changed"
	b := SummaryFallback()
	assert.Equal(t, "Key finding 1", b.KeyPoints[0])
	assert.Equal(t, "Main Concept", b.Figures[0].Title)

	q := QuizFallback()
	*q.Questions[0].CorrectAnswer = 0
	assert.Equal(t, 3, *QuizFallback().Questions[0].CorrectAnswer)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, ReasonUpstream, Classify(&llm.UpstreamError{StatusCode: 500}))
	assert.Equal(t, ReasonTransport, Classify(&llm.TransportError{Err: errors.New("reset")}))
	assert.Equal(t, ReasonTimeout, Classify(&llm.TransportError{Err: context.DeadlineExceeded}))
	assert.Equal(t, ReasonEmptyCompletion, Classify(llm.ErrEmptyCompletion))
	assert.Equal(t, ReasonNoJSON, Classify(util.ErrNoJSONFound))
	assert.Equal(t, ReasonMalformedJSON, Classify(ErrMalformedJSON))
	assert.Equal(t, ReasonShapeMismatch, Classify(ErrShapeMismatch))
	assert.Equal(t, ReasonUnknown, Classify(errors.New("other")))
}
