package paper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"paper-pal/api/internal/normalize"
	"paper-pal/api/internal/paper/types"
	"paper-pal/api/internal/pdftext"
)

const (
	diagramTitle       = "Relevant Diagram %d"
	diagramDescription = "Diagram or flowchart relevant to the paper"
)

// ImageSearcher is satisfied by *images.Searcher.
type ImageSearcher interface {
	Search(ctx context.Context, query string) []string
}

// Request is one full analysis: either PDF bytes or already extracted text.
type Request struct {
	PDF        []byte
	Text       string
	Credential string
	SkillLevel types.SkillLevel
	LLMName    string
}

// Paper is the summary merged with the source text, as the UI renders it.
type Paper struct {
	types.SummaryResult
	ExtractedText string `json:"extractedText"`
}

type Analysis struct {
	Paper        Paper                    `json:"paper"`
	Quiz         types.QuizResult         `json:"quiz"`
	Applications types.ApplicationsResult `json:"applications"`
	Pages        int                      `json:"pages,omitempty"`
	// Fallbacks maps task name to the reason its placeholder was used.
	Fallbacks map[string]string `json:"fallbacks,omitempty"`
	Elapsed   string            `json:"elapsed"`
}

type Analyzer struct {
	n      *normalize.Normalizer
	images ImageSearcher
	log    *logrus.Logger
}

func NewAnalyzer(n *normalize.Normalizer, images ImageSearcher, log *logrus.Logger) *Analyzer {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Analyzer{n: n, images: images, log: log}
}

// ImageQuery is the search phrase used to illustrate a summary.
func ImageQuery(s types.SummaryResult) string {
	return strings.TrimSpace(s.Title + " " + strings.Join(s.KeyPoints, " ") + " diagram flowchart")
}

// Analyze runs summary, quiz and applications concurrently; image search
// follows the summary since it needs the title and key points. The summary's
// figures are always replaced by the search results, possibly none.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Analysis, error) {
	started := time.Now()
	var out Analysis

	text := req.Text
	if len(req.PDF) > 0 {
		ex, err := pdftext.Extract(req.PDF)
		if err != nil {
			return Analysis{}, fmt.Errorf("%w: file: %v", types.ErrInvalidField, err)
		}
		text, out.Pages = ex.Text, ex.Pages
	}

	base := types.GenerationRequest{
		SourceText: text,
		Credential: req.Credential,
		SkillLevel: req.SkillLevel,
		LLMName:    req.LLMName,
	}
	probe := base
	probe.Task = types.TaskSummary
	if err := probe.Validate(); err != nil {
		return Analysis{}, err
	}
	if _, err := a.n.Engines().GetEngine(req.LLMName); err != nil {
		return Analysis{}, err
	}

	var (
		mu        sync.Mutex
		fallbacks = map[string]string{}
	)
	note := func(task types.TaskKind, o normalize.Outcome) {
		if !o.FellBack {
			return
		}
		mu.Lock()
		fallbacks[string(task)] = o.Reason
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r := base
		r.Task = types.TaskSummary
		s, o, err := normalize.Run(gctx, a.n, normalize.SummaryTask, r)
		if err != nil {
			return err
		}
		note(types.TaskSummary, o)
		var imgs []string
		if a.images != nil {
			imgs = a.images.Search(gctx, ImageQuery(s))
		}
		s.Figures = figuresFrom(imgs)
		out.Paper = Paper{SummaryResult: s, ExtractedText: text}
		return nil
	})
	g.Go(func() error {
		r := base
		r.Task = types.TaskQuiz
		q, o, err := normalize.Run(gctx, a.n, normalize.QuizTask, r)
		if err != nil {
			return err
		}
		note(types.TaskQuiz, o)
		out.Quiz = q
		return nil
	})
	g.Go(func() error {
		r := base
		r.Task = types.TaskApplications
		ap, o, err := normalize.Run(gctx, a.n, normalize.ApplicationsTask, r)
		if err != nil {
			return err
		}
		note(types.TaskApplications, o)
		out.Applications = ap
		return nil
	})
	if err := g.Wait(); err != nil {
		return Analysis{}, err
	}

	if len(fallbacks) > 0 {
		out.Fallbacks = fallbacks
	}
	out.Elapsed = time.Since(started).Round(time.Millisecond).String()
	a.log.WithFields(logrus.Fields{
		"chars":     len(text),
		"pages":     out.Pages,
		"fallbacks": len(fallbacks),
		"elapsed":   out.Elapsed,
	}).Info("paper analyzed")
	return out, nil
}

func figuresFrom(imgs []string) []types.Figure {
	figs := make([]types.Figure, 0, len(imgs))
	for i, u := range imgs {
		figs = append(figs, types.Figure{
			ID:          i + 1,
			Title:       fmt.Sprintf(diagramTitle, i+1),
			Description: diagramDescription,
			URL:         u,
		})
	}
	return figs
}
