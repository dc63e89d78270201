package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/types"
)

// ListModels handles GET /models with the static catalog.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.ModelList{Data: h.Router.Models()})
}
