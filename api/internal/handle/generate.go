package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"paper-pal/api/internal/normalize"
	"paper-pal/api/internal/paper/types"
)

type contentRequest struct {
	Text       string `json:"text"`
	Credential string `json:"credential"`
	APIKey     string `json:"apiKey"`
	SkillLevel string `json:"skillLevel"`
	LLMName    string `json:"llm_name"`
}

type derivedRequest struct {
	Content    string `json:"content"`
	Credential string `json:"credential"`
	APIKey     string `json:"apiKey"`
	SkillLevel string `json:"skillLevel"`
	LLMName    string `json:"llm_name"`
}

// route describes one generation endpoint.
type route struct {
	task       types.TaskKind
	missingMsg string
	failMsg    string
}

var (
	contentRoute      = route{types.TaskSummary, "Missing required fields: text and apiKey", "Failed to generate content"}
	quizRoute         = route{types.TaskQuiz, "Missing required fields: content and apiKey", "Failed to generate quiz"}
	applicationsRoute = route{types.TaskApplications, "Missing required fields: content and apiKey", "Failed to generate applications"}
)

func (h *Handle) GenerateContent(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var req contentRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.generate(w, r, contentRoute, req.Text, credentialFrom(req.Credential, req.APIKey), req.SkillLevel, req.LLMName)
}

func (h *Handle) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var req derivedRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.generate(w, r, quizRoute, req.Content, credentialFrom(req.Credential, req.APIKey), req.SkillLevel, req.LLMName)
}

func (h *Handle) GenerateApplications(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var req derivedRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.generate(w, r, applicationsRoute, req.Content, credentialFrom(req.Credential, req.APIKey), req.SkillLevel, req.LLMName)
}

func (h *Handle) generate(w http.ResponseWriter, r *http.Request, rt route, text, credential, skill, llmName string) {
	level, err := types.ParseSkillLevel(skill)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := types.GenerationRequest{
		Task:       rt.task,
		SourceText: text,
		Credential: credential,
		SkillLevel: level,
		LLMName:    strings.TrimSpace(llmName),
	}

	ctx, cancel := h.withDeadline(r)
	defer cancel()

	out, o, err := normalize.Generate(ctx, h.n, req)
	switch {
	case errors.Is(err, types.ErrMissingField):
		writeError(w, http.StatusBadRequest, rt.missingMsg)
		return
	case errors.Is(err, types.ErrInvalidField):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.WithError(err).WithFields(logrus.Fields{"task": rt.task, "reason": o.Reason}).Error("generation failed")
		writeError(w, http.StatusInternalServerError, rt.failMsg)
		return
	}
	if o.FellBack {
		w.Header().Set(fallbackHeader, o.Reason)
	}
	writeJSON(w, http.StatusOK, out)
}
