package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/n-zngr/recipes-app/internal/auth"
	"github.com/n-zngr/recipes-app/internal/household"
	"github.com/n-zngr/recipes-app/internal/model"
	ws "github.com/n-zngr/recipes-app/internal/websocket"
)

type HouseholdHandler struct {
	svc    *household.Service
	hub    *ws.Hub
	logger *slog.Logger
}

func NewHouseholdHandler(svc *household.Service, hub *ws.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{svc: svc, hub: hub, logger: logger}
}

type createHouseholdRequest struct {
	Name         string   `json:"name"`
	MemberEmails []string `json:"member_emails"`
}

type householdResponse struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Owner   int64   `json:"owner"`
	Admins  []int64 `json:"admins"`
	Members []int64 `json:"members"`
	Users   []int64 `json:"users"`
}

func toHouseholdResponse(snap *model.Snapshot) householdResponse {
	resp := householdResponse{
		ID:      snap.ID,
		Name:    snap.Name,
		Admins:  []int64{},
		Members: []int64{},
		Users:   snap.UserIDs(),
	}
	for _, m := range snap.Members {
		switch m.Role {
		case model.RoleOwner:
			resp.Owner = m.UserID
		case model.RoleAdmin:
			resp.Admins = append(resp.Admins, m.UserID)
		default:
			resp.Members = append(resp.Members, m.UserID)
		}
	}
	return resp
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	snap, err := h.svc.Create(auth.UserID(r.Context()), req.Name, req.MemberEmails)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toHouseholdResponse(snap))
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.svc.HouseholdsFor(auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"households": households})
}

// Users returns the household roster with emails, grouped by role.
func (h *HouseholdHandler) Users(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid household id"})
		return
	}

	roster, err := h.svc.GetRoster(householdID, auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// AdminCheck reports whether the caller holds the owner or admin role.
func (h *HouseholdHandler) AdminCheck(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid household id"})
		return
	}

	authorized, err := h.svc.IsAdmin(householdID, auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authorized": authorized})
}

type addMemberRequest struct {
	Email string `json:"email"`
}

func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid household id"})
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	userID, err := h.svc.AddMember(householdID, auth.UserID(r.Context()), req.Email)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(householdID, "member", "added", userID))
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": userID})
}

func (h *HouseholdHandler) Promote(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid household id"})
		return
	}
	userID, err := parseIDParam(r, "user_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := h.svc.Promote(householdID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(householdID, "member", "promoted", userID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) Demote(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid household id"})
		return
	}
	userID, err := parseIDParam(r, "user_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := h.svc.Demote(householdID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(householdID, "member", "removed", userID))
	w.WriteHeader(http.StatusNoContent)
}
