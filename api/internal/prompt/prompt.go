package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"paper-pal/api/internal/paper/types"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Library holds one parsed system template per task.
type Library struct {
	tmpl map[types.TaskKind]*template.Template
}

var tasks = []types.TaskKind{types.TaskSummary, types.TaskQuiz, types.TaskApplications}

// Load parses the embedded templates. A non-empty dir may override any of
// them with <dir>/<task>.system.tmpl; a file that does not parse or render fails here.
func Load(dir string) (*Library, error) {
	lib := &Library{tmpl: make(map[types.TaskKind]*template.Template, len(tasks))}
	for _, k := range tasks {
		name := string(k) + ".system.tmpl"
		src, err := fs.ReadFile(embedded, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", k, err)
		}
		if dir != "" {
			p := filepath.Join(dir, name)
			b, err := os.ReadFile(p)
			switch {
			case err == nil && len(bytes.TrimSpace(b)) > 0:
				src = b
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return nil, fmt.Errorf("prompt %s: read %s: %w", k, p, err)
			}
		}
		t, err := template.New(name).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("prompt %s: parse: %w", k, err)
		}
		// dry run so a template referencing unknown fields fails at startup
		if err := t.Execute(io.Discard, data{Level: types.Undergraduate.Label()}); err != nil {
			return nil, fmt.Errorf("prompt %s: render: %w", k, err)
		}
		lib.tmpl[k] = t
	}
	return lib, nil
}

// MustDefault returns the embedded library; embedded templates always parse.
func MustDefault() *Library {
	lib, err := Load("")
	if err != nil {
		panic(err)
	}
	return lib
}

type data struct {
	Level string
}

// Build renders the system instructions for task at level. The paper text
// goes to the user message unchanged.
func (l *Library) Build(task types.TaskKind, level types.SkillLevel, text string) (types.PromptSpec, error) {
	t, ok := l.tmpl[task]
	if !ok {
		return types.PromptSpec{}, fmt.Errorf("%w: task %q", types.ErrInvalidField, task)
	}
	var b strings.Builder
	if err := t.Execute(&b, data{Level: level.Label()}); err != nil {
		return types.PromptSpec{}, fmt.Errorf("prompt %s: render: %w", task, err)
	}
	return types.PromptSpec{
		SystemInstructions: strings.TrimSpace(b.String()),
		UserContent:        text,
	}, nil
}
