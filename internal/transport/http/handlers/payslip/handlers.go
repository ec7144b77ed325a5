package paysliphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payslipgen/internal/document"
	"payslipgen/internal/domain/audit"
	"payslipgen/internal/domain/payslip"
	"payslipgen/internal/platform/metrics"
	"payslipgen/internal/transport/http/api"
	"payslipgen/internal/transport/http/middleware"
	"payslipgen/internal/transport/http/shared"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Service interface {
	Create(ctx context.Context, rec payslip.Record) (payslip.Payslip, error)
	Get(ctx context.Context, id string) (payslip.Payslip, error)
	List(ctx context.Context, limit, offset int) ([]payslip.Payslip, int, error)
}

type Renderer interface {
	Render(ctx context.Context, in document.Input) (document.Document, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, evt audit.Event, details any) error
}

type Handler struct {
	Service  Service
	Renderer Renderer
	Audit    AuditRecorder
	Metrics  *metrics.Collector
	Log      *zap.Logger
}

func NewHandler(service Service, renderer Renderer, recorder AuditRecorder, collector *metrics.Collector, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: service, Renderer: renderer, Audit: recorder, Metrics: collector, Log: log}
}

type documentRequest struct {
	Logo    string `json:"logo"`
	LogoURL string `json:"logoUrl"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payslips", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{payslipID}", h.handleGet)
		r.Get("/{payslipID}/pdf", h.handleDocument)
		r.Post("/{payslipID}/pdf", h.handleDocument)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var rec payslip.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	created, err := h.Service.Create(r.Context(), rec)
	if err != nil {
		v := shared.NewValidator()
		if v.Merge(err) {
			v.Reject(w, requestID)
			return
		}
		h.Log.Error("payslip create failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "payslip_create_failed", "failed to save payslip", requestID)
		return
	}
	h.Metrics.PayslipCreated()
	h.record(r, audit.ActionPayslipCreate, created.ID, map[string]string{
		"employeeId":      created.EmployeeID,
		"payPeriod":       created.PayPeriod,
		"totalNetPayable": created.TotalNetPayable.String(),
	})
	api.Created(w, created, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	page := shared.ParsePagination(r, defaultPageSize, maxPageSize, v)
	if v.Reject(w, requestID) {
		return
	}

	items, total, err := h.Service.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.Log.Error("payslip list failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "payslip_list_failed", "failed to list payslips", requestID)
		return
	}
	if items == nil {
		items = []payslip.Payslip{}
	}
	api.Success(w, api.ListData{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, ok := h.load(w, r)
	if !ok {
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

// handleDocument renders a stored payslip. A POST may name a logo; the
// document is produced with or without it depending on how the load ends.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload documentRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			return
		}
	}
	source, err := logoSource(payload)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "logo", Reason: err.Error()}})
		return
	}

	found, ok := h.load(w, r)
	if !ok {
		return
	}

	doc, err := h.Renderer.Render(r.Context(), document.Input{
		Record:     found.Record,
		Totals:     found.Record.Totals(),
		LogoSource: source,
		CreatedAt:  found.CreatedAt,
	})
	if err != nil {
		h.Log.Error("payslip render failed", zap.Error(err), zap.String("payslipId", found.ID), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "payslip_render_failed", "failed to generate payslip document", requestID)
		return
	}
	h.Metrics.DocumentRendered(string(doc.LogoOutcome))
	h.record(r, audit.ActionPayslipDocument, found.ID, map[string]string{"logo": string(doc.LogoOutcome)})
	w.Header().Set("X-Logo-Outcome", string(doc.LogoOutcome))
	api.Attachment(w, "application/pdf", doc.Filename, doc.Content)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (payslip.Payslip, bool) {
	requestID := middleware.GetRequestID(r.Context())
	found, err := h.Service.Get(r.Context(), chi.URLParam(r, "payslipID"))
	if errors.Is(err, payslip.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "payslip_not_found", "payslip not found", requestID)
		return payslip.Payslip{}, false
	}
	if err != nil {
		h.Log.Error("payslip lookup failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "payslip_lookup_failed", "failed to load payslip", requestID)
		return payslip.Payslip{}, false
	}
	return found, true
}

// record writes an audit event. Audit failures are logged and never fail the
// request.
func (h *Handler) record(r *http.Request, action, payslipID string, details any) {
	if h.Audit == nil {
		return
	}
	evt := audit.Event{
		Action:     action,
		EntityType: audit.EntityPayslip,
		EntityID:   payslipID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
	}
	if principal, ok := middleware.GetPrincipal(r.Context()); ok {
		evt.Actor = principal.Subject
	}
	if err := h.Audit.Record(r.Context(), evt, details); err != nil {
		h.Log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}

func logoSource(payload documentRequest) (document.LogoSource, error) {
	if payload.Logo != "" {
		return document.ParseLogoSource(payload.Logo)
	}
	if payload.LogoURL != "" {
		src, err := document.ParseLogoSource(payload.LogoURL)
		if err != nil {
			return document.LogoSource{}, err
		}
		if src.URL == "" {
			return document.LogoSource{}, errors.New("logoUrl must be an http or https URL")
		}
		return src, nil
	}
	return document.LogoSource{}, nil
}
