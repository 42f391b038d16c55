package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/greenbasket/greenbasket-backend/pkg/config"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

const (
	sandboxBaseURL    = "https://sandbox.sslcommerz.com"
	productionBaseURL = "https://securepay.sslcommerz.com"

	sessionPath   = "/gwprocess/v4/api.php"
	validatorPath = "/validator/api/validationserverAPI.php"
)

var (
	errCredentialsRequired = errors.New("sslcommerz store id and password are required")
	errLoggerRequired      = errors.New("sslcommerz logger is required")
)

// Client wraps the SSLCommerz session and validation endpoints. The gateway
// has no official Go SDK, so this speaks its form/JSON API directly.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	storeID       string
	storePassword string
	logger        *logger.Logger
}

// SessionParams carries the inputs for creating a hosted payment session.
type SessionParams struct {
	TranID       string
	Amount       string
	Currency     string
	SuccessURL   string
	FailURL      string
	CancelURL    string
	CustomerName string
	ProductName  string
}

// Session is the subset of the gateway session response callers need.
type Session struct {
	Status         string `json:"status"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

// Validation is the validator API response for a completed transaction.
type Validation struct {
	Status      string `json:"status"`
	TranID      string `json:"tran_id"`
	ValID       string `json:"val_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	BankTranID  string `json:"bank_tran_id"`
	CardType    string `json:"card_type"`
	TranDate    string `json:"tran_date"`
	RiskLevel   string `json:"risk_level"`
	RiskTitle   string `json:"risk_title"`
	ErrorReason string `json:"error"`
}

// Paid reports whether the validator confirmed the transaction.
func (v Validation) Paid() bool {
	return v.Status == "VALID" || v.Status == "VALIDATED"
}

// NewClient builds an SSLCommerz client against the configured environment.
func NewClient(cfg config.SSLCommerzConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	storeID := strings.TrimSpace(cfg.StoreID)
	storePassword := strings.TrimSpace(cfg.StorePassword)
	if storeID == "" || storePassword == "" {
		return nil, errCredentialsRequired
	}

	baseURL := productionBaseURL
	if cfg.Sandbox {
		baseURL = sandboxBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		storeID:       storeID,
		storePassword: storePassword,
		logger:        logg,
	}, nil
}

// CreateSession opens a hosted checkout session and returns the redirect URL.
func (c *Client) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	form := url.Values{}
	form.Set("store_id", c.storeID)
	form.Set("store_passwd", c.storePassword)
	form.Set("tran_id", params.TranID)
	form.Set("total_amount", params.Amount)
	form.Set("currency", defaultCurrency(params.Currency))
	form.Set("success_url", params.SuccessURL)
	form.Set("fail_url", params.FailURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("cus_name", params.CustomerName)
	form.Set("product_name", params.ProductName)
	form.Set("product_category", "grocery")
	form.Set("product_profile", "physical-goods")
	form.Set("shipping_method", "YES")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sslcommerz session request failed")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.log(ctx, "request", "create_session", map[string]any{"tran_id": params.TranID, "amount": params.Amount})

	var session Session
	if err := c.do(req, &session); err != nil {
		c.log(ctx, "error", "create_session", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_session", map[string]any{
		"tran_id": params.TranID,
		"status":  session.Status,
	})
	if session.Status != "SUCCESS" {
		reason := session.FailedReason
		if reason == "" {
			reason = "session rejected"
		}
		return nil, pkgerrors.New(pkgerrors.CodePaymentInitFailed, fmt.Sprintf("sslcommerz: %s", reason))
	}
	return &session, nil
}

// ValidateTransaction asks the validator API whether the transaction is paid.
func (c *Client) ValidateTransaction(ctx context.Context, valID string) (*Validation, error) {
	if strings.TrimSpace(valID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "val_id is required")
	}

	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePassword)
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+validatorPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sslcommerz validation request failed")
	}

	c.log(ctx, "request", "validate_transaction", map[string]any{"val_id": valID})

	var validation Validation
	if err := c.do(req, &validation); err != nil {
		c.log(ctx, "error", "validate_transaction", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "validate_transaction", map[string]any{
		"val_id":  valID,
		"tran_id": validation.TranID,
		"status":  validation.Status,
	})
	return &validation, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sslcommerz unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading sslcommerz response")
	}
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sslcommerz returned status %d", resp.StatusCode))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding sslcommerz response")
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("sslcommerz %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("sslcommerz %s", phase))
	}
}

func defaultCurrency(code string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return "BDT"
	}
	return trimmed
}
