package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/theplant/luhn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkoutflow/storecredit/internal/checkout/application"
	"github.com/checkoutflow/storecredit/internal/checkout/domain"
)

type Handler struct {
	log         *slog.Logger
	lifecycle   *application.Lifecycle
	queries     *application.Queries
	orders      application.OrderRepository
	instruments application.InstrumentRepository
	auth        *Auth
	tracer      trace.Tracer
}

func NewHandler(log *slog.Logger, lifecycle *application.Lifecycle, queries *application.Queries,
	orders application.OrderRepository, instruments application.InstrumentRepository, auth *Auth) *Handler {
	return &Handler{
		log:         log,
		lifecycle:   lifecycle,
		queries:     queries,
		orders:      orders,
		instruments: instruments,
		auth:        auth,
		tracer:      otel.Tracer("checkout-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/orders/{id}/transition", h.transition)
	r.Get("/api/orders/{id}", h.getOrder)
	r.Get("/api/orders/{id}/credit", h.creditSummary)
	r.Post("/api/instruments", h.createInstrument)
	r.With(h.auth.Middleware).Get("/api/me/instruments", h.myInstruments)
	return r
}

type transitionReq struct {
	To domain.OrderState `json:"to"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TransitionOrder")
	defer span.End()

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	var req transitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	o, err := h.lifecycle.Transition(ctx, orderID, req.To)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderView(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	o, err := h.orders.Get(ctx, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderView(o))
}

type creditSummaryResp struct {
	AvailableCents  int64 `json:"available_cents"`
	ApplicableCents int64 `json:"applicable_cents"`
	RemainderCents  int64 `json:"remainder_cents"`
	FullyCovered    bool  `json:"fully_covered"`
	RequiresPayment bool  `json:"requires_payment"`
}

func (h *Handler) creditSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreditSummary")
	defer span.End()

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	o, err := h.orders.Get(ctx, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var resp creditSummaryResp
	if resp.AvailableCents, err = h.queries.TotalAvailableCredit(ctx, o); err != nil {
		h.writeError(w, err)
		return
	}
	if resp.ApplicableCents, err = h.queries.TotalApplicableCredit(ctx, o); err != nil {
		h.writeError(w, err)
		return
	}
	if resp.RemainderCents, err = h.queries.RemainderAfterCredit(ctx, o); err != nil {
		h.writeError(w, err)
		return
	}
	if resp.FullyCovered, err = h.queries.FullyCoveredByCredit(ctx, o); err != nil {
		h.writeError(w, err)
		return
	}
	if resp.RequiresPayment, err = h.queries.RequiresPayment(ctx, o); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type createInstrumentReq struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	Code         string    `json:"code"`
	Currency     string    `json:"currency"`
	BalanceCents int64     `json:"balance_cents"`
	Priority     int       `json:"priority"`
}

func (h *Handler) createInstrument(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateInstrument")
	defer span.End()

	var req createInstrumentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.CustomerID == uuid.Nil || req.BalanceCents < 0 {
		http.Error(w, "invalid instrument", http.StatusUnprocessableEntity)
		return
	}
	code, err := strconv.Atoi(req.Code)
	if err != nil || !luhn.Valid(code) {
		http.Error(w, "invalid instrument code", http.StatusUnprocessableEntity)
		return
	}

	now := time.Now().UTC()
	ci := &domain.CreditInstrument{
		ID:           uuid.New(),
		CustomerID:   req.CustomerID,
		Code:         req.Code,
		Currency:     req.Currency,
		BalanceCents: req.BalanceCents,
		Priority:     req.Priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.instruments.Create(ctx, ci); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, instrumentView(ci))
}

func (h *Handler) myInstruments(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListInstruments")
	defer span.End()

	customerID, ok := CustomerID(ctx)
	if !ok {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}
	list, err := h.instruments.ListByCustomer(ctx, customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]instrumentResp, 0, len(list))
	for _, ci := range list {
		views = append(views, instrumentView(ci))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var funding *domain.FundingError
	var config *domain.ConfigError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &funding):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       "unable to fund order",
			"total_cents": funding.TotalCents,
			"paid_cents":  funding.PaidCents,
		})
	case errors.As(err, &config):
		h.log.Error("payment configuration error", "err", err)
		http.Error(w, "payment configuration error", http.StatusInternalServerError)
	default:
		h.log.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type paymentResp struct {
	ID           uuid.UUID         `json:"id"`
	SourceType   domain.SourceType `json:"source_type"`
	InstrumentID *uuid.UUID        `json:"instrument_id,omitempty"`
	AmountCents  int64             `json:"amount_cents"`
	State        string            `json:"state"`
}

type orderResp struct {
	ID               uuid.UUID     `json:"id"`
	Number           string        `json:"number"`
	State            string        `json:"state"`
	PaymentState     string        `json:"payment_state"`
	Currency         string        `json:"currency"`
	TotalCents       int64         `json:"total_cents"`
	OutstandingCents int64         `json:"outstanding_cents"`
	Payments         []paymentResp `json:"payments"`
}

func orderView(o *domain.Order) orderResp {
	resp := orderResp{
		ID:               o.ID,
		Number:           o.Number,
		State:            string(o.State),
		PaymentState:     string(o.PaymentState),
		Currency:         o.Currency,
		TotalCents:       o.TotalCents,
		OutstandingCents: o.OutstandingCents,
		Payments:         make([]paymentResp, 0, len(o.Payments)),
	}
	for _, p := range o.Payments {
		view := paymentResp{
			ID:          p.ID,
			SourceType:  p.SourceType,
			AmountCents: p.AmountCents,
			State:       string(p.State),
		}
		if p.InstrumentID != uuid.Nil {
			id := p.InstrumentID
			view.InstrumentID = &id
		}
		resp.Payments = append(resp.Payments, view)
	}
	return resp
}

type instrumentResp struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Currency     string    `json:"currency"`
	BalanceCents int64     `json:"balance_cents"`
	Priority     int       `json:"priority"`
}

func instrumentView(ci *domain.CreditInstrument) instrumentResp {
	return instrumentResp{
		ID:           ci.ID,
		Code:         ci.Code,
		Currency:     ci.Currency,
		BalanceCents: ci.BalanceCents,
		Priority:     ci.Priority,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
