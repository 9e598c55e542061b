// Package api exposes the rights ledger over HTTP. Handlers translate
// between JSON request bodies and the core service, and map the ledger's
// error taxonomy onto HTTP statuses; they contain no ledger logic of their
// own.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger"
)

// LedgerHandler handles HTTP requests for the rights ledger.
type LedgerHandler struct {
	service rightsledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(service rightsledger.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Routes returns the routes for the ledger.
func (h *LedgerHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/platform", h.InitializePlatform)
	r.Get("/platform", h.GetPlatform)
	r.Patch("/platform/fee", h.UpdatePlatformFee)

	r.Post("/contents", h.CreateContent)
	r.Get("/contents/{id}", h.GetContent)
	r.Patch("/contents/{id}", h.UpdateContent)

	r.Post("/contents/{id}/purchase", h.PurchaseContent)
	r.Post("/contents/{id}/rent", h.RentContent)
	r.Post("/contents/{id}/resell", h.ResellContent)
	r.Get("/contents/{id}/access/{principal}", h.CheckAccess)

	r.Post("/subscriptions", h.Subscribe)
	r.Get("/subscriptions/{subscriber}", h.GetSubscription)
	r.Get("/subscriptions/{subscriber}/valid", h.IsSubscriptionValid)

	return r
}

// InitializePlatformRequest is the request body for creating the platform.
type InitializePlatformRequest struct {
	Authority      string `json:"authority"`
	FeeBasisPoints int64  `json:"fee_basis_points"`
}

func (h *LedgerHandler) InitializePlatform(w http.ResponseWriter, r *http.Request) {
	var req InitializePlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	authority, err := uuid.Parse(req.Authority)
	if err != nil {
		slog.Error("Invalid authority", "authority", req.Authority, "error", err)
		writeBadRequest(w, r, "invalid authority")
		return
	}

	platform, err := h.service.InitializePlatform(r.Context(), rightsledger.InitializePlatformRequest{
		Authority:      authority,
		FeeBasisPoints: req.FeeBasisPoints,
	})
	if err != nil {
		slog.Error("Failed to initialize platform", "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Platform initialized", "authority", platform.Authority.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, platform)
}

func (h *LedgerHandler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	platform, err := h.service.GetPlatform(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, platform)
}

// UpdatePlatformFeeRequest is the request body for changing the fee.
type UpdatePlatformFeeRequest struct {
	Authority      string `json:"authority"`
	FeeBasisPoints int64  `json:"fee_basis_points"`
}

func (h *LedgerHandler) UpdatePlatformFee(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlatformFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	authority, err := uuid.Parse(req.Authority)
	if err != nil {
		writeBadRequest(w, r, "invalid authority")
		return
	}

	platform, err := h.service.UpdatePlatformFee(r.Context(), rightsledger.UpdatePlatformFeeRequest{
		Authority:      authority,
		FeeBasisPoints: req.FeeBasisPoints,
	})
	if err != nil {
		slog.Error("Failed to update platform fee", "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Platform fee updated", "fee_basis_points", platform.FeeBasisPoints)
	render.JSON(w, r, platform)
}

// CreateContentRequest is the request body for registering content.
type CreateContentRequest struct {
	Creator                  string `json:"creator"`
	ID                       string `json:"id"`
	StorageRef               string `json:"storage_ref"`
	Price                    int64  `json:"price"`
	RoyaltyPercent           int64  `json:"royalty_percent"`
	RentalEnabled            bool   `json:"rental_enabled"`
	RentalPrice              int64  `json:"rental_price"`
	RentalDurationSeconds    int64  `json:"rental_duration_seconds"`
	RequiredSubscriptionTier int64  `json:"required_subscription_tier"`
}

func (h *LedgerHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	creator, err := uuid.Parse(req.Creator)
	if err != nil {
		slog.Error("Invalid creator", "creator", req.Creator, "error", err)
		writeBadRequest(w, r, "invalid creator")
		return
	}

	content, err := h.service.CreateContent(r.Context(), rightsledger.CreateContentRequest{
		Creator:                  creator,
		ID:                       req.ID,
		StorageRef:               req.StorageRef,
		Price:                    req.Price,
		RoyaltyPercent:           req.RoyaltyPercent,
		RentalEnabled:            req.RentalEnabled,
		RentalPrice:              req.RentalPrice,
		RentalDuration:           time.Duration(req.RentalDurationSeconds) * time.Second,
		RequiredSubscriptionTier: req.RequiredSubscriptionTier,
	})
	if err != nil {
		slog.Error("Failed to create content", "content_id", req.ID, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Content created", "content_id", content.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, content)
}

func (h *LedgerHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	content, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, content)
}

// UpdateContentRequest is the request body for updating content terms.
// Absent fields are left unchanged.
type UpdateContentRequest struct {
	Creator                  string `json:"creator"`
	Price                    *int64 `json:"price,omitempty"`
	Active                   *bool  `json:"active,omitempty"`
	RentalEnabled            *bool  `json:"rental_enabled,omitempty"`
	RentalPrice              *int64 `json:"rental_price,omitempty"`
	RentalDurationSeconds    *int64 `json:"rental_duration_seconds,omitempty"`
	RequiredSubscriptionTier *int64 `json:"required_subscription_tier,omitempty"`
}

func (h *LedgerHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	creator, err := uuid.Parse(req.Creator)
	if err != nil {
		writeBadRequest(w, r, "invalid creator")
		return
	}

	update := rightsledger.UpdateContentRequest{
		Creator:                  creator,
		ID:                       id,
		Price:                    req.Price,
		Active:                   req.Active,
		RentalEnabled:            req.RentalEnabled,
		RentalPrice:              req.RentalPrice,
		RequiredSubscriptionTier: req.RequiredSubscriptionTier,
	}
	if req.RentalDurationSeconds != nil {
		duration := time.Duration(*req.RentalDurationSeconds) * time.Second
		update.RentalDuration = &duration
	}

	content, err := h.service.UpdateContent(r.Context(), update)
	if err != nil {
		slog.Error("Failed to update content", "content_id", id, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Content updated", "content_id", content.ID)
	render.JSON(w, r, content)
}

// PurchaseRequest is the request body for a purchase.
type PurchaseRequest struct {
	Buyer string `json:"buyer"`
}

func (h *LedgerHandler) PurchaseContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	buyer, err := uuid.Parse(req.Buyer)
	if err != nil {
		writeBadRequest(w, r, "invalid buyer")
		return
	}

	result, err := h.service.PurchaseContent(r.Context(), rightsledger.PurchaseContentRequest{
		Buyer:     buyer,
		ContentID: id,
	})
	if err != nil {
		slog.Error("Failed to purchase content", "content_id", id, "buyer", buyer, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Content purchased", "content_id", id, "buyer", buyer)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// RentRequest is the request body for a rental.
type RentRequest struct {
	Renter string `json:"renter"`
}

func (h *LedgerHandler) RentContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	renter, err := uuid.Parse(req.Renter)
	if err != nil {
		writeBadRequest(w, r, "invalid renter")
		return
	}

	result, err := h.service.RentContent(r.Context(), rightsledger.RentContentRequest{
		Renter:    renter,
		ContentID: id,
	})
	if err != nil {
		slog.Error("Failed to rent content", "content_id", id, "renter", renter, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Content rented", "content_id", id, "renter", renter)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// ResellRequest is the request body for a resale.
type ResellRequest struct {
	Seller string `json:"seller"`
	Buyer  string `json:"buyer"`
	Price  int64  `json:"price"`
}

func (h *LedgerHandler) ResellContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ResellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	seller, err := uuid.Parse(req.Seller)
	if err != nil {
		writeBadRequest(w, r, "invalid seller")
		return
	}
	buyer, err := uuid.Parse(req.Buyer)
	if err != nil {
		writeBadRequest(w, r, "invalid buyer")
		return
	}

	result, err := h.service.ResellContent(r.Context(), rightsledger.ResellContentRequest{
		Seller:    seller,
		Buyer:     buyer,
		ContentID: id,
		Price:     req.Price,
	})
	if err != nil {
		slog.Error("Failed to resell content", "content_id", id, "seller", seller, "buyer", buyer, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Content resold", "content_id", id, "seller", seller, "buyer", buyer)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func (h *LedgerHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	principal, err := uuid.Parse(chi.URLParam(r, "principal"))
	if err != nil {
		writeBadRequest(w, r, "invalid principal")
		return
	}

	hasAccess, err := h.service.HasActiveAccess(r.Context(), principal, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"has_access": hasAccess})
}

// SubscribeRequest is the request body for subscribing.
type SubscribeRequest struct {
	Subscriber string `json:"subscriber"`
	Tier       int64  `json:"tier"`
}

func (h *LedgerHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	subscriber, err := uuid.Parse(req.Subscriber)
	if err != nil {
		writeBadRequest(w, r, "invalid subscriber")
		return
	}

	result, err := h.service.Subscribe(r.Context(), rightsledger.SubscribeRequest{
		Subscriber: subscriber,
		Tier:       req.Tier,
	})
	if err != nil {
		slog.Error("Failed to subscribe", "subscriber", subscriber, "tier", req.Tier, "error", err)
		writeError(w, r, err)
		return
	}

	slog.Info("Subscription created", "subscriber", subscriber, "tier", req.Tier)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func (h *LedgerHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	subscriber, err := uuid.Parse(chi.URLParam(r, "subscriber"))
	if err != nil {
		writeBadRequest(w, r, "invalid subscriber")
		return
	}

	subscription, err := h.service.GetSubscription(r.Context(), subscriber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, subscription)
}

func (h *LedgerHandler) IsSubscriptionValid(w http.ResponseWriter, r *http.Request) {
	subscriber, err := uuid.Parse(chi.URLParam(r, "subscriber"))
	if err != nil {
		writeBadRequest(w, r, "invalid subscriber")
		return
	}

	requiredTier := int64(rightsledger.MinSubscriptionTier)
	if raw := r.URL.Query().Get("tier"); raw != "" {
		requiredTier, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeBadRequest(w, r, "invalid tier")
			return
		}
	}

	valid, err := h.service.IsSubscriptionValid(r.Context(), subscriber, requiredTier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"valid": valid})
}
