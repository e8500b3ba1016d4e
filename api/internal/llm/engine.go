package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"paper-pal/api/internal/paper/types"
)

// Sampling holds the fixed sampling parameters sent with every call.
type Sampling struct {
	Temperature float64
	MaxTokens   int
}

// Engine performs exactly one chat-completion call per Complete.
type Engine interface {
	Name() string
	GetModel() string
	Complete(ctx context.Context, p types.PromptSpec, credential string) (string, error)
}

type Engines struct {
	def string
	m   map[string]Engine
}

// NewEngines registers engines under their Name; def names the engine used
// when a request does not pick one.
func NewEngines(def string, engs ...Engine) *Engines {
	e := &Engines{def: strings.ToLower(strings.TrimSpace(def)), m: make(map[string]Engine, len(engs))}
	for _, eng := range engs {
		if eng == nil {
			continue
		}
		e.m[strings.ToLower(eng.Name())] = eng
	}
	return e
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = e.def
	}
	switch name {
	case "gpt":
		name = "openai"
	case "google":
		name = "gemini"
	}
	if eng, ok := e.m[name]; ok {
		return eng, nil
	}
	return nil, fmt.Errorf("%w: unknown llm_name %q; use %s", types.ErrInvalidField, llmName, strings.Join(e.Names(), " | "))
}

// Names lists the registered engines in stable order.
func (e *Engines) Names() []string {
	out := make([]string, 0, len(e.m))
	for k := range e.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e *Engines) Default() string { return e.def }
