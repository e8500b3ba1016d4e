package handle

import (
	"encoding/json"
	"net/http"
	"strings"

	"paper-pal/api/internal/paper/types"
)

type imagesRequest struct {
	Query string `json:"query"`
}

// FetchImages is best effort: anything but a missing query answers 200.
func (h *Handle) FetchImages(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var req imagesRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.WithError(err).Debug("fetch-images: bad body")
		writeJSON(w, http.StatusOK, types.ImagesResult{Images: []string{}})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Missing query")
		return
	}

	ctx, cancel := h.withDeadline(r)
	defer cancel()

	imgs := []string{}
	if h.images != nil {
		imgs = h.images.Search(ctx, req.Query)
	}
	writeJSON(w, http.StatusOK, types.ImagesResult{Images: imgs})
}
