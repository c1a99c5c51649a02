package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/n-zngr/recipes-app/internal/auth"
	"github.com/n-zngr/recipes-app/internal/household"
	"github.com/n-zngr/recipes-app/internal/push"
	"github.com/n-zngr/recipes-app/internal/store"
	ws "github.com/n-zngr/recipes-app/internal/websocket"
)

type IngredientHandler struct {
	svc       *household.Service
	hub       *ws.Hub
	pushStore *store.PushStore
	pushSvc   *push.Service
	logger    *slog.Logger
}

// NewIngredientHandler creates the handler; pushSvc may be nil when push
// notifications are disabled.
func NewIngredientHandler(svc *household.Service, hub *ws.Hub, ps *store.PushStore, pushSvc *push.Service, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{svc: svc, hub: hub, pushStore: ps, pushSvc: pushSvc, logger: logger}
}

func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid household id"})
		return
	}

	ingredients, err := h.svc.ListIngredients(householdID, auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"household_id": householdID,
		"ingredients":  ingredients,
	})
}

type addIngredientRequest struct {
	Name string `json:"name"`
}

func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid household id"})
		return
	}

	var req addIngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	userID := auth.UserID(r.Context())
	ingredient, err := h.svc.AddIngredient(householdID, userID, req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(householdID, "ingredient", "added", ingredient.ID))
	go h.notify(householdID, userID, ingredient.Name)

	writeJSON(w, http.StatusCreated, ingredient)
}

// notify pushes "ingredient added" to every household subscription except
// the actor's own devices. Expired subscriptions are pruned.
func (h *IngredientHandler) notify(householdID, actorID int64, name string) {
	if h.pushSvc == nil {
		return
	}

	subs, err := h.pushStore.ListByHousehold(householdID)
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		return
	}

	payload := push.Payload{
		Title: "Pantry updated",
		Body:  fmt.Sprintf("%s was added to the pantry", name),
		Tag:   fmt.Sprintf("ingredient-%d", householdID),
	}
	for _, sub := range subs {
		if sub.UserID == actorID {
			continue
		}
		if err := h.pushSvc.Send(&sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				if err := h.pushStore.DeleteByEndpoint(sub.Endpoint); err != nil {
					h.logger.Error("prune push subscription", "error", err)
				}
				continue
			}
			h.logger.Error("send push", "error", err, "subscription_id", sub.ID)
		}
	}
}
