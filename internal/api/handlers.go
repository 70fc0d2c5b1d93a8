package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/signalfeed"
	"github.com/rxtech-lab/argo-signals/internal/trading"
	"github.com/rxtech-lab/argo-signals/internal/trading/gateway"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Row     *int             `json:"row,omitempty"`
	Value   string           `json:"value,omitempty"`
	// VenueCode is the venue's own status code for rejected orders.
	VenueCode string `json:"venue_code,omitempty"`
}

// NormalizeResponse is the body of a successful normalize call.
type NormalizeResponse struct {
	Rows    int    `json:"rows"`
	Times   string `json:"times"`
	Signals string `json:"signals"`
	Pine    string `json:"pine"`
}

// OrderRequest is the body of POST /v1/orders. Volume defaults to the configured lot.
type OrderRequest struct {
	Symbol string              `json:"symbol"`
	Action string              `json:"action"`
	Volume decimal.NullDecimal `json:"volume"`
}

// OrderResponse is the body of an executed order.
type OrderResponse struct {
	Message string            `json:"message"`
	Result  types.OrderResult `json:"result"`
}

// InstrumentsResponse lists what the order form may offer.
type InstrumentsResponse struct {
	Instruments   []string        `json:"instruments"`
	DefaultVolume decimal.Decimal `json:"default_volume"`
	MinVolume     decimal.Decimal `json:"min_volume"`
	MaxVolume     decimal.Decimal `json:"max_volume"`
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes)

	data, err := readUpload(r)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to read upload", err))

		return
	}

	feed, err := s.options.Normalizer.Normalize(r.Context(), signalfeed.NewCSVSource(data))
	if err != nil {
		s.writeError(w, err)

		return
	}

	export := signalfeed.ExportFeed(feed)

	s.writeJSON(w, http.StatusOK, NormalizeResponse{
		Rows:    feed.Len(),
		Times:   export.Times,
		Signals: export.Signals,
		Pine:    signalfeed.PineSnippet(export),
	})
}

// readUpload accepts a multipart form with a "file" field or the raw CSV as the body.
func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order body", err))

		return
	}

	volume := s.options.DefaultVolume
	if req.Volume.Valid {
		volume = req.Volume.Decimal
	}

	result, err := s.options.Submitter.Submit(r.Context(), trading.SubmitParams{
		Symbol: req.Symbol,
		Action: req.Action,
		Volume: volume,
	})
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, OrderResponse{
		Message: trading.StatusMessage(result, nil),
		Result:  result,
	})
}

func (s *Server) handleInstruments(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, InstrumentsResponse{
		Instruments:   s.options.Instruments,
		DefaultVolume: s.options.DefaultVolume,
		MinVolume:     s.options.MinVolume,
		MaxVolume:     s.options.MaxVolume,
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	providers := make([]gateway.ProviderInfo, 0)

	for _, name := range gateway.GetSupportedProviders() {
		info, err := gateway.GetProviderInfo(name)
		if err != nil {
			continue
		}

		providers = append(providers, info)
	}

	s.writeJSON(w, http.StatusOK, providers)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		Code:    errors.GetCode(err),
		Message: err.Error(),
	}

	var parseErr *errors.ParseError
	if errors.As(err, &parseErr) {
		row := parseErr.Row
		resp.Row = &row
		resp.Value = parseErr.Value
	}

	if rejected, ok := errors.AsVenueRejected(err); ok {
		resp.Message = trading.StatusMessage(types.OrderResult{}, err)
		resp.VenueCode = rejected.Code
	}

	status := statusFor(resp.Code)
	if status >= http.StatusInternalServerError {
		s.log.Warn("Request failed", zap.Error(err))
	}

	s.writeJSON(w, status, resp)
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidParameter,
		errors.ErrCodeInvalidAction,
		errors.ErrCodeUnsupportedSymbol,
		errors.ErrCodeInvalidVolume,
		errors.ErrCodeMissingParameter:
		return http.StatusBadRequest
	case errors.ErrCodeSignalParseFailed,
		errors.ErrCodeMissingColumn,
		errors.ErrCodeSignalSourceFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeVenueRejected,
		errors.ErrCodeOrderFailed,
		errors.ErrCodeVenueProtocol:
		return http.StatusBadGateway
	case errors.ErrCodeGatewayUnavailable,
		errors.ErrCodeQuoteUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
