package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rcastell/homestock/internal/core/domain"
	"github.com/rcastell/homestock/internal/core/service"
	"github.com/rcastell/homestock/internal/metrics"
)

type ProductHandler struct {
	products *service.ProductService
	sync     *service.SyncService
	log      *logrus.Logger
}

func NewProductHandler(products *service.ProductService, sync *service.SyncService, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{products: products, sync: sync, log: log}
}

func (h *ProductHandler) Register(r *mux.Router) {
	r.HandleFunc("/product", h.AddProduct).Methods(http.MethodPost)
	r.HandleFunc("/products", h.GetAllProducts).Methods(http.MethodGet)
	r.HandleFunc("/product/{id}", h.UpdateProduct).Methods(http.MethodPut)
	r.HandleFunc("/product/{id}", h.DeleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/syncInventory", h.SyncInventory).Methods(http.MethodPost)
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
}

type productRequest struct {
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	PurchaseDate string  `json:"purchaseDate"`
	Store        string  `json:"store"`
	Location     string  `json:"location"`
	UserID       string  `json:"userId"`
}

func (req *productRequest) toDomain(id string) domain.Product {
	return domain.Product{
		ID:           id,
		OwnerID:      req.UserID,
		Name:         req.Name,
		Quantity:     req.Quantity,
		Price:        req.Price,
		PurchaseDate: req.PurchaseDate,
		Store:        req.Store,
		Location:     req.Location,
	}
}

func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.products.Add(r.Context(), req.toDomain("")); err != nil {
		h.log.WithError(err).Error("product addition failed")
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Product added")
}

// ownerID resolves the record owner: the userId query parameter when the
// caller supplies one, otherwise the X-User-ID header the gateway sets from
// the verified token.
func ownerID(r *http.Request) string {
	if userID := r.URL.Query().Get("userId"); userID != "" {
		return userID
	}
	return r.Header.Get("X-User-ID")
}

func (h *ProductHandler) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.GetAll(r.Context(), ownerID(r))
	if err != nil {
		h.log.WithError(err).Error("product listing failed")
		writeError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.products.Update(r.Context(), req.toDomain(mux.Vars(r)["id"])); err != nil {
		if !errors.Is(err, service.ErrProductNotFound) {
			h.log.WithError(err).Error("product update failed")
		}
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product updated")
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), mux.Vars(r)["id"], ownerID(r)); err != nil {
		if !errors.Is(err, service.ErrProductNotFound) {
			h.log.WithError(err).Error("product deletion failed")
		}
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted")
}

type syncRequest struct {
	UserID  string          `json:"userId"`
	Changes []domain.Change `json:"changes"`
}

type syncResponse struct {
	Message string              `json:"message"`
	Results []domain.SyncResult `json:"results"`
}

// SyncInventory runs the reconciliation engine over a batch of offline edits.
// A halted batch reports the results applied before the failure so the client
// can trim its local change log and resubmit the rest.
func (h *ProductHandler) SyncInventory(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.sync.Reconcile(r.Context(), req.UserID, req.Changes)
	for _, res := range summary.Results {
		metrics.SyncChangesTotal.WithLabelValues(string(res.Outcome)).Inc()
	}
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"user_id": req.UserID,
			"applied": len(summary.Results),
			"batch":   len(req.Changes),
		}).Error("inventory synchronization failed")

		status := statusFor(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			message = genericServerError
		}
		writeJSON(w, status, syncResponse{Message: message, Results: summary.Results})
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Message: "Inventory synchronized",
		Results: summary.Results,
	})
}
