package api

import (
	"errors"
	"net/http"

	"address-gateway/address"
	"address-gateway/metrics"
	"address-gateway/middleware/admission"
	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// ConvertResponse é o corpo de sucesso de POST /convert.
type ConvertResponse struct {
	address.Conversion
	Success bool `json:"success"`
}

type Handler struct {
	pipeline *admission.Pipeline
	codec    address.Codec
	metrics  *metrics.Collector
	logger   *zap.Logger
	workers  int

	convertDoc map[string]any
	batchDoc   map[string]any
	apiDoc     map[string]any
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	adm, err := h.pipeline.Admit(r, domain.EndpointConvert)
	adm.Annotate(w.Header())
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if adm.ReadOnly {
		apierror.WriteJSON(w, http.StatusOK, h.convertDoc)
		return
	}

	conv, err := h.codec.Convert(adm.Request.Address())
	if err != nil {
		h.metrics.ObserveConversion(domain.EndpointConvert, false)
		if !errors.Is(err, address.ErrInvalidAddress) {
			h.logger.Warn("address conversion error", zap.Error(err))
		} else {
			h.logger.Debug("invalid address", zap.Error(err))
		}
		apierror.Write(w, apierror.New(apierror.KindConversionFailure, errInvalidAddress))
		return
	}

	h.metrics.ObserveConversion(domain.EndpointConvert, true)
	apierror.WriteJSON(w, http.StatusOK, ConvertResponse{Conversion: conv, Success: true})
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	adm, err := h.pipeline.Admit(r, domain.EndpointBatch)
	adm.Annotate(w.Header())
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if adm.ReadOnly {
		apierror.WriteJSON(w, http.StatusOK, h.batchDoc)
		return
	}

	h.metrics.ObserveBatchSize(adm.Request.Len())
	resp, err := convertBatch(r.Context(), h.codec, adm.Request.Addresses(), h.workers)
	if err != nil {
		// só acontece com o contexto cancelado (cliente desconectou)
		h.logger.Info("batch aborted", zap.Error(err))
		apierror.Write(w, apierror.Internal(err))
		return
	}

	for _, item := range resp.Results {
		h.metrics.ObserveConversion(domain.EndpointBatch, item.Success)
		if item.cause != nil {
			h.logger.Warn("batch conversion error",
				zap.Int("index", item.Index),
				zap.Error(item.cause),
			)
		}
	}
	apierror.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Docs(w http.ResponseWriter, _ *http.Request) {
	apierror.WriteJSON(w, http.StatusOK, h.apiDoc)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	apierror.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
