package payhero

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gigmile/mobile-money-service/internal/config"
	"go.uber.org/zap"
)

var ErrMissingCredentials = errors.New("payhero: username, password and channel id are required")

const maxErrorBody = 512

// defaultTimeout stays below the API's per-request deadline.
const defaultTimeout = 20 * time.Second

// Client talks to the PayHero STK push API. Every fault at this boundary is
// turned into a result value; no method returns an error.
type Client struct {
	baseURL    string
	authHeader string
	channelID  int
	provider   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.PayHeroConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.ChannelID == 0 {
		return nil, ErrMissingCredentials
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "m-pesa"
	}

	token := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: "Basic " + token,
		channelID:  cfg.ChannelID,
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Initiate asks the provider to push a payment prompt to the phone.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) InitiateResult {
	phone := NormalizePhone(req.PhoneNumber)
	amount := RoundAmount(req.Amount)
	if amount <= 0 || phone == "" || req.Reference == "" {
		c.logger.Warn("rejected invalid initiate request",
			zap.String("reference", req.Reference),
			zap.Int64("amount", amount),
		)
		return InitiateResult{Success: false, Status: StatusError}
	}

	body, err := json.Marshal(paymentRequest{
		Amount:            amount,
		PhoneNumber:       phone,
		ChannelID:         c.channelID,
		Provider:          c.provider,
		ExternalReference: req.Reference,
		CustomerName:      req.CustomerName,
		CallbackURL:       req.CallbackURL,
	})
	if err != nil {
		c.logger.Error("failed to marshal payment request", zap.Error(err))
		return InitiateResult{Success: false, Status: StatusError}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to build payment request", zap.Error(err))
		return InitiateResult{Success: false, Status: StatusError}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, ok := c.do(httpReq, req.Reference)
	if !ok {
		return InitiateResult{Success: false, Submitted: true, Status: StatusError}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logRejected(resp, req.Reference)
		return InitiateResult{Success: false, Submitted: true, Status: httpStatus(resp.StatusCode)}
	}

	var decoded paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("failed to decode payment response",
			zap.Error(err),
			zap.String("reference", req.Reference),
		)
		return InitiateResult{Success: false, Submitted: true, Status: StatusError}
	}

	message := decoded.Message
	if message == "" {
		message = decoded.ErrorMessage
	}

	return InitiateResult{
		Success:           decoded.Success,
		Submitted:         true,
		Status:            decoded.Status,
		Reference:         decoded.Reference,
		CheckoutRequestID: decoded.CheckoutRequestID,
		Message:           message,
	}
}

// CheckStatus queries the provider for the state of a reference.
func (c *Client) CheckStatus(ctx context.Context, reference string) StatusResult {
	if reference == "" {
		return StatusResult{Success: false, Status: StatusError, Message: "reference is required"}
	}

	endpoint := c.baseURL + "/transaction-status?reference=" + url.QueryEscape(reference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error("failed to build status request", zap.Error(err))
		return StatusResult{Success: false, Status: StatusError, Message: err.Error()}
	}

	resp, ok := c.do(httpReq, reference)
	if !ok {
		return StatusResult{Success: false, Status: StatusError, Message: "status request failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logRejected(resp, reference)
		return StatusResult{
			Success: false,
			Status:  httpStatus(resp.StatusCode),
			Message: fmt.Sprintf("provider returned %d", resp.StatusCode),
		}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.logger.Error("failed to decode status response",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return StatusResult{Success: false, Status: StatusError, Message: "invalid status response"}
	}

	status, _ := data["status"].(string)
	return StatusResult{Success: true, Status: status, Data: data}
}

// ProcessCallback interprets a callback body. It performs no I/O.
func (c *Client) ProcessCallback(payload CallbackPayload) CallbackResult {
	return ProcessCallback(payload)
}

func ProcessCallback(payload CallbackPayload) CallbackResult {
	r := payload.Response
	return CallbackResult{
		Success:            r.ResultCode == 0 && r.Status == CallbackStatusSuccess,
		Amount:             r.Amount,
		Reference:          r.ExternalReference,
		MpesaReceiptNumber: r.MpesaReceiptNumber,
		Status:             r.Status,
		ResultCode:         r.ResultCode,
		ResultDesc:         r.ResultDesc,
		CheckoutRequestID:  r.CheckoutRequestID,
	}
}

func (c *Client) do(req *http.Request, reference string) (*http.Response, bool) {
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("payhero request failed",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("reference", reference),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, false
	}

	c.logger.Info("payhero response received",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("reference", reference),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, true
}

func (c *Client) logRejected(resp *http.Response, reference string) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	c.logger.Warn("payhero rejected request",
		zap.Int("status", resp.StatusCode),
		zap.String("reference", reference),
		zap.String("body", string(body)),
	)
}

const httpStatusPrefix = "HTTP_"

func httpStatus(code int) string {
	return fmt.Sprintf("%s%d", httpStatusPrefix, code)
}

func parseHTTPStatus(status string) (int, bool) {
	if !strings.HasPrefix(status, httpStatusPrefix) {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimPrefix(status, httpStatusPrefix))
	if err != nil {
		return 0, false
	}
	return code, true
}
