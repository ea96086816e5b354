package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/catalog/internal/catalog/app"
	"github.com/dejobratic/catalog/internal/catalog/domain"
	"github.com/dejobratic/catalog/internal/catalog/ports"
	"github.com/dejobratic/catalog/internal/feed"
	"github.com/dejobratic/catalog/internal/oauth"
	"github.com/go-playground/validator/v10"
)

// Handler exposes HTTP endpoints for catalog operations.
type Handler struct {
	service  *app.Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Register binds the catalog handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/products", h.handleProducts)
	mux.HandleFunc("/v1/products/", h.handleProductByID)
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.listProducts(w, r)
}

func (h *Handler) handleProductByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/products/"), "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	if id == "external" {
		h.fetchExternal(w, r)
		return
	}
	h.getProduct(w, r, id)
}

// listRequest carries the validated query string parameters.
type listRequest struct {
	SortBy    string `validate:"omitempty,oneof=price createdAt name"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	req := listRequest{
		SortBy:    params.Get("sortBy"),
		SortOrder: params.Get("sortOrder"),
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid sort parameters")
		return
	}

	query := domain.PageQuery{
		Cursor:    params.Get("cursor"),
		SortBy:    domain.SortField(req.SortBy),
		SortOrder: domain.SortOrder(req.SortOrder),
		Filters: domain.Filters{
			Category: params.Get("category"),
			Search:   params.Get("search"),
		},
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		query.Limit = limit
	}
	if raw := params.Get("minPrice"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "minPrice must be a number")
			return
		}
		query.Filters.MinPrice = &price
	}
	if raw := params.Get("maxPrice"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "maxPrice must be a number")
			return
		}
		query.Filters.MaxPrice = &price
	}

	page, err := h.service.ListProducts(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) {
			writeError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) fetchExternal(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.FetchExternal(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrCircuitOpen):
			writeError(w, http.StatusServiceUnavailable, "upstream provider unavailable")
		case errors.Is(err, oauth.ErrAuthFailed):
			writeError(w, http.StatusBadGateway, "upstream authentication failed")
		default:
			writeError(w, http.StatusBadGateway, "upstream provider error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
