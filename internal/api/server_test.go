package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/signalfeed"
	"github.com/rxtech-lab/argo-signals/internal/trading"
	"github.com/rxtech-lab/argo-signals/internal/trading/gateway"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

type ServerTestSuite struct {
	suite.Suite
	paper  *gateway.PaperGateway
	server *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	log := logger.NewNopLogger()

	suite.paper = gateway.NewPaperGatewayWithQuotes(
		gateway.NewStaticQuoteSource(map[string]float64{"XAUUSD": 2000}),
		map[string]float64{"XAUUSD": 0.1, "EURUSD": 0.00001},
		log,
	)

	submitter, err := trading.NewSubmitter(suite.paper, trading.SubmitterConfig{
		Instruments:        []string{"XAUUSD", "EURUSD", "GBPUSD"},
		MinVolume:          decimal.RequireFromString("0.01"),
		MaxVolume:          decimal.NewFromInt(100),
		StopDistancePoints: 10,
		Deviation:          10,
	}, log)
	suite.Require().NoError(err)

	suite.server = NewServer(Options{
		Normalizer:     signalfeed.NewNormalizer(log),
		Submitter:      submitter,
		Instruments:    []string{"XAUUSD", "EURUSD", "GBPUSD"},
		DefaultVolume:  decimal.RequireFromString("0.1"),
		MinVolume:      decimal.RequireFromString("0.01"),
		MaxVolume:      decimal.NewFromInt(100),
		MaxUploadBytes: 1 << 20,
		Logger:         log,
	})
}

func (suite *ServerTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	suite.server.Handler().ServeHTTP(rec, req)

	return rec
}

func (suite *ServerTestSuite) decodeError(rec *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func (suite *ServerTestSuite) TestNormalize_RawBody() {
	body := "timestamp,signal\n2024-01-02 09:30,buy\n2024-01-02 10:00,sell\n"
	rec := suite.do(httptest.NewRequest(http.MethodPost, "/v1/signals/normalize", strings.NewReader(body)))

	suite.Equal(http.StatusOK, rec.Code)
	suite.NotEmpty(rec.Header().Get("X-Request-ID"))

	var resp NormalizeResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.Equal(2, resp.Rows)
	suite.Equal("2024-01-02 09:30,2024-01-02 10:00", resp.Times)
	suite.Equal("buy,sell", resp.Signals)
	suite.Contains(resp.Pine, "Signal Directions:")
}

func (suite *ServerTestSuite) TestNormalize_Multipart() {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "signals.csv")
	suite.Require().NoError(err)
	_, err = part.Write([]byte("timestamp,signal\n2024-01-02T09:30:00+01:00,buy\n"))
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/signals/normalize", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := suite.do(req)

	suite.Equal(http.StatusOK, rec.Code)

	var resp NormalizeResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.Equal("2024-01-02 08:30", resp.Times)
}

func (suite *ServerTestSuite) TestNormalize_BadTimestamp() {
	body := "timestamp,signal\n2024-01-02 09:30,buy\nsoon,sell\n"
	rec := suite.do(httptest.NewRequest(http.MethodPost, "/v1/signals/normalize", strings.NewReader(body)))

	suite.Equal(http.StatusUnprocessableEntity, rec.Code)

	resp := suite.decodeError(rec)
	suite.Equal(errors.ErrCodeSignalParseFailed, resp.Code)
	suite.Require().NotNil(resp.Row)
	suite.Equal(2, *resp.Row)
	suite.Equal("soon", resp.Value)
}

func (suite *ServerTestSuite) TestSubmitOrder_Filled() {
	rec := suite.do(httptest.NewRequest(http.MethodPost, "/v1/orders",
		strings.NewReader(`{"symbol": "XAUUSD", "action": "buy"}`)))

	suite.Equal(http.StatusOK, rec.Code)

	var resp OrderResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.Equal("Trade executed: buy at 2000", resp.Message)
	suite.True(decimal.RequireFromString("0.1").Equal(resp.Result.Volume))
	suite.True(decimal.NewFromInt(1999).Equal(resp.Result.StopLoss))
	suite.Len(suite.paper.Orders(), 1)
}

func (suite *ServerTestSuite) TestSubmitOrder_Errors() {
	suite.Run("invalid action", func() {
		rec := suite.do(httptest.NewRequest(http.MethodPost, "/v1/orders",
			strings.NewReader(`{"symbol": "XAUUSD", "action": "hold", "volume": 1}`)))
		suite.Equal(http.StatusBadRequest, rec.Code)
		suite.Equal(errors.ErrCodeInvalidAction, suite.decodeError(rec).Code)
	})

	suite.Run("no quote", func() {
		rec := suite.do(httptest.NewRequest(http.MethodPost, "/v1/orders",
			strings.NewReader(`{"symbol": "EURUSD", "action": "sell", "volume": "0.5"}`)))
		suite.Equal(http.StatusServiceUnavailable, rec.Code)
		suite.Equal(errors.ErrCodeQuoteUnavailable, suite.decodeError(rec).Code)
	})

	suite.Run("malformed body", func() {
		rec := suite.do(httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{`)))
		suite.Equal(http.StatusBadRequest, rec.Code)
	})

	suite.Empty(suite.paper.Orders())
}

func (suite *ServerTestSuite) TestInstrumentsAndProviders() {
	rec := suite.do(httptest.NewRequest(http.MethodGet, "/v1/instruments", nil))
	suite.Equal(http.StatusOK, rec.Code)

	var instruments InstrumentsResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &instruments))
	suite.Equal([]string{"XAUUSD", "EURUSD", "GBPUSD"}, instruments.Instruments)

	rec = suite.do(httptest.NewRequest(http.MethodGet, "/v1/providers", nil))
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), `"terminal"`)
}

func (suite *ServerTestSuite) TestMetricsEndpoint() {
	suite.do(httptest.NewRequest(http.MethodPost, "/v1/orders",
		strings.NewReader(`{"symbol": "XAUUSD", "action": "sell"}`)))

	rec := suite.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), "orders_submitted_total")
}

func (suite *ServerTestSuite) TestStartStop() {
	suite.Require().NoError(suite.server.Start("127.0.0.1:0"))

	resp, err := http.Get("http://" + suite.server.Address() + "/healthz")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	suite.NoError(suite.server.Stop(ctx))
}
