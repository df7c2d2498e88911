/**
 * @description
 * This file contains the HTTP handlers for entitlement resolution and the
 * direct purchase endpoint. Access resolution always answers with a result,
 * never a 404: an unknown game resolves to "no access" with a reason.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// handleResolveAccess reports whether and how a user may access a game.
func (h *Handler) handleResolveAccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}
	gameID, ok := h.pathUUID(w, r, "gameID")
	if !ok {
		return
	}

	result, err := h.entitlements.ResolveAccess(r.Context(), userID, gameID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to resolve access\" user_id=%s game_id=%s err=%v", userID, gameID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not resolve access")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleGetLibrary returns everything a user can currently play.
func (h *Handler) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	library, err := h.entitlements.ResolveLibrary(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to resolve library\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load library")
		return
	}
	respondWithJSON(w, http.StatusOK, library)
}

// handleHasEntitlement reports whether the user owns anything or holds an
// active subscription. Free-to-play access does not count.
func (h *Handler) handleHasEntitlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	entitled, err := h.entitlements.HasAnyEntitlement(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to check entitlement\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not check entitlement")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"entitled": entitled})
}

// handlePurchase records a direct (non-cart) purchase. Validation denials come
// back as a 400 with the structured result; only a created ledger row is a 201.
func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	var req struct {
		GameID uuid.UUID `json:"game_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.purchases.Purchase(r.Context(), userID, req.GameID)
	if err != nil {
		log.Printf("level=error component=api msg=\"purchase failed\" user_id=%s game_id=%s err=%v", userID, req.GameID, err)
		h.writeError(w, http.StatusInternalServerError, "Purchase failed")
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusBadRequest
	}
	respondWithJSON(w, status, result)
}
