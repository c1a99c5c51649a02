package handler

import (
	"encoding/json"
	"net/http"

	"github.com/n-zngr/recipes-app/internal/recommend"
)

const defaultTopN = 5

type RecipeHandler struct {
	engine *recommend.Engine
}

// NewRecipeHandler creates the handler; engine may be nil when no corpus
// is loaded, in which case recommendations are unavailable.
func NewRecipeHandler(engine *recommend.Engine) *RecipeHandler {
	return &RecipeHandler{engine: engine}
}

type recommendRequest struct {
	Ingredients []string `json:"ingredients"`
}

func (h *RecipeHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "recommendation model not loaded"})
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if len(req.Ingredients) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ingredients are required"})
		return
	}

	results := h.engine.Recommend(req.Ingredients, defaultTopN)
	writeJSON(w, http.StatusOK, map[string]any{"recipes": results})
}
