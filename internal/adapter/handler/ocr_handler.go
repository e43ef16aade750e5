package handler

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rcastell/homestock/internal/core/service"
)

// maxReceiptSize bounds uploaded receipt images at 10 MiB.
const maxReceiptSize = 10 << 20

type OCRHandler struct {
	ocr *service.OCRService
	log *logrus.Logger
}

func NewOCRHandler(ocr *service.OCRService, log *logrus.Logger) *OCRHandler {
	return &OCRHandler{ocr: ocr, log: log}
}

func (h *OCRHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/ocr/upload", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
}

func (h *OCRHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("ticket")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "missing ticket file")
		return
	}
	defer file.Close()

	document, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "unreadable ticket file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	receipt, err := h.ocr.ProcessReceipt(r.Context(), document, contentType)
	if err != nil {
		h.log.WithError(err).Error("receipt processing failed")
		writeMessage(w, http.StatusInternalServerError, "could not process the receipt")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
