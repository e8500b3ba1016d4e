package handle

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"paper-pal/api/internal/paper"
	"paper-pal/api/internal/paper/types"
	"paper-pal/api/internal/pdftext"
)

// readUpload parses the multipart form and returns the bytes of field "file".
func (h *Handle) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return nil, false
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields: file")
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read file: "+err.Error())
		return nil, false
	}
	return data, true
}

func (h *Handle) ExtractText(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	res, err := pdftext.Extract(data)
	if err != nil {
		if errors.Is(err, pdftext.ErrNotPDF) {
			writeError(w, http.StatusBadRequest, "file is not a PDF")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read PDF: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handle) AnalyzePaper(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	credential := credentialFrom(r.FormValue("credential"), r.FormValue("apiKey"))
	if credential == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: file and apiKey")
		return
	}
	level, err := types.ParseSkillLevel(r.FormValue("skillLevel"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.withDeadline(r)
	defer cancel()

	res, err := h.analyzer.Analyze(ctx, paper.Request{
		PDF:        data,
		Credential: credential,
		SkillLevel: level,
		LLMName:    strings.TrimSpace(r.FormValue("llm_name")),
	})
	switch {
	case errors.Is(err, types.ErrMissingField):
		writeError(w, http.StatusBadRequest, "no extractable text in PDF")
		return
	case errors.Is(err, types.ErrInvalidField):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.WithError(err).Error("analyze failed")
		writeError(w, http.StatusInternalServerError, "Failed to analyze paper")
		return
	}
	if len(res.Fallbacks) > 0 {
		reasons := make([]string, 0, len(res.Fallbacks))
		for _, task := range []types.TaskKind{types.TaskSummary, types.TaskQuiz, types.TaskApplications} {
			if reason, ok := res.Fallbacks[string(task)]; ok {
				reasons = append(reasons, string(task)+"="+reason)
			}
		}
		w.Header().Set(fallbackHeader, strings.Join(reasons, ","))
	}
	writeJSON(w, http.StatusOK, res)
}
