/**
 * @description
 * This file contains the HTTP handlers for the cart and checkout endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application services, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/store: For service logic and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gamevault/storefront-service/internal/app"
	"github.com/gamevault/storefront-service/internal/store"
)

// Handler holds the application services that handlers will interact with.
type Handler struct {
	catalog       *app.CatalogService
	entitlements  *app.EntitlementService
	cart          *app.CartService
	checkout      *app.CheckoutService
	purchases     *app.PurchaseService
	subscriptions *app.SubscriptionService
}

// NewHandler creates a new Handler with the given services.
func NewHandler(
	catalog *app.CatalogService,
	entitlements *app.EntitlementService,
	cart *app.CartService,
	checkout *app.CheckoutService,
	purchases *app.PurchaseService,
	subscriptions *app.SubscriptionService,
) *Handler {
	return &Handler{
		catalog:       catalog,
		entitlements:  entitlements,
		cart:          cart,
		checkout:      checkout,
		purchases:     purchases,
		subscriptions: subscriptions,
	}
}

// pathUUID parses a UUID path parameter, writing a 400 response on failure.
func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// handleGetCart returns the user's cart view; a user who never added anything
// gets an empty cart rather than a 404.
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	cart, err := h.cart.GetCartView(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to load cart\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load cart")
		return
	}
	respondWithJSON(w, http.StatusOK, cart)
}

// handleAddItem adds a game to the user's cart.
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req struct {
		GameID   uuid.UUID `json:"game_id"`
		Quantity int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.cart.AddItem(r.Context(), userID, req.GameID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrGameNotFound):
			h.writeError(w, http.StatusNotFound, "Game not found")
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, app.ErrCannotAddFreeGame),
			errors.Is(err, app.ErrAlreadyOwned),
			errors.Is(err, app.ErrInvalidQuantity):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("level=error component=api msg=\"failed to add cart item\" user_id=%s err=%v", userID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not add item to cart")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// handleRemoveItem deletes a single line from the user's cart.
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.cart.RemoveItem(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, store.ErrCartNotFound) || errors.Is(err, store.ErrCartItemNotFound) {
			h.writeError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		log.Printf("level=error component=api msg=\"failed to remove cart item\" user_id=%s item_id=%s err=%v", userID, itemID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not remove item from cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateQuantity sets a line's quantity. Zero removes the line; a
// negative quantity is rejected outright.
func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 0 {
		h.writeError(w, http.StatusBadRequest, "Quantity cannot be negative")
		return
	}

	if _, err := h.cart.UpdateQuantity(r.Context(), userID, itemID, req.Quantity); err != nil {
		if errors.Is(err, store.ErrCartNotFound) || errors.Is(err, store.ErrCartItemNotFound) {
			h.writeError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		log.Printf("level=error component=api msg=\"failed to update cart item\" user_id=%s item_id=%s err=%v", userID, itemID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not update cart item")
		return
	}

	// Return the refreshed cart so the client sees the recomputed total.
	cart, err := h.cart.GetCartView(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to reload cart\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load cart")
		return
	}
	respondWithJSON(w, http.StatusOK, cart)
}

// handleClearCart removes every line from the user's cart.
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.cart.Clear(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrCartNotFound) {
			h.writeError(w, http.StatusNotFound, "Cart not found")
			return
		}
		log.Printf("level=error component=api msg=\"failed to clear cart\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not clear cart")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// handleCheckout drains the user's cart into purchases. The result is 200 when
// at least one line purchased and 400 otherwise, with the same body shape.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "userID")
	if !ok {
		return
	}

	result, err := h.checkout.Checkout(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api msg=\"checkout failed\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Checkout failed")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	respondWithJSON(w, status, result)
}

// writeError writes a JSON error body with the given status code.
func (h *Handler) writeError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
