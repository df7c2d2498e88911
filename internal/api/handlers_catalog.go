/**
 * @description
 * This file contains the HTTP handlers for catalog browsing and subscription
 * management. Catalog writes live in the external admin tooling; these
 * endpoints only read games and plans, plus the one mutating operation this
 * service owns on subscriptions: subscribing to a pricing option.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/gamevault/storefront-service/internal/app"
	"github.com/gamevault/storefront-service/internal/store"
)

// handleListGames returns the browsable catalog.
func (h *Handler) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.ListGames(r.Context())
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to list games\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not list games")
		return
	}
	respondWithJSON(w, http.StatusOK, games)
}

// handleGetGame returns a single game; soft-deleted titles are a 404.
func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.pathUUID(w, r, "gameID")
	if !ok {
		return
	}

	game, err := h.catalog.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			h.writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		log.Printf("level=error component=api msg=\"failed to get game\" game_id=%s err=%v", gameID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load game")
		return
	}
	respondWithJSON(w, http.StatusOK, game)
}

// handleListPlans returns every subscription plan with its game bundle.
func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.subscriptions.ListPlans(r.Context())
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to list plans\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not list plans")
		return
	}
	respondWithJSON(w, http.StatusOK, plans)
}

// handleGetSubscription returns the user's active subscription, if any.
func (h *Handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	sub, err := h.subscriptions.GetActiveSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			h.writeError(w, http.StatusNotFound, "No active subscription")
			return
		}
		log.Printf("level=error component=api msg=\"failed to get subscription\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load subscription")
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// handleSubscribe starts a new subscription for a user. A request made while
// a subscription is still active is a 409.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req struct {
		PricingOptionID uuid.UUID `json:"pricing_option_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.subscriptions.Subscribe(r.Context(), userID, req.PricingOptionID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrPricingOptionNotFound):
			h.writeError(w, http.StatusNotFound, "Pricing option not found")
		case errors.Is(err, app.ErrSubscriptionActive):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			log.Printf("level=error component=api msg=\"failed to subscribe\" user_id=%s err=%v", userID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not create subscription")
		}
		return
	}
	respondWithJSON(w, http.StatusCreated, sub)
}
