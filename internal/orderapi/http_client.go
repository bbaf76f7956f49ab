package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/version"
)

const maxErrorBody = 4 << 10

// HTTPClient вызывает POST /api/orders сервиса заказов.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	logger   *log.Entry
}

// NewHTTPClient создаёт клиент. Таймаут задаётся контекстом вызова, поэтому
// http.Client без собственного Timeout допустим.
func NewHTTPClient(baseURL string, httpClient *http.Client, logger *log.Entry) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid order service url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = log.WithField("component", "order-http-client")
	}
	return &HTTPClient{
		endpoint: u.JoinPath("api", "orders").String(),
		http:     httpClient,
		logger:   logger,
	}, nil
}

// CreateOrder отправляет заказ. Любая ошибка возвращается как *domain.SubmissionError.
func (c *HTTPClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReceipt, error) {
	body, err := json.Marshal(NewCreateOrderRequest(req.Lines))
	if err != nil {
		return domain.OrderReceipt{}, &domain.SubmissionError{Kind: domain.SubmissionNetwork, Err: fmt.Errorf("marshal order: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.OrderReceipt{}, &domain.SubmissionError{Kind: domain.SubmissionNetwork, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(HeaderIdempotencyKey, req.IdempotencyKey)
	}
	httpReq.Header.Set(HeaderUserID, req.Customer.UserID)
	if req.Customer.Name != "" {
		httpReq.Header.Set(HeaderUserName, req.Customer.Name)
	}
	if req.Customer.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Customer.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.OrderReceipt{}, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WithFields(log.Fields{
			"status":          resp.StatusCode,
			"idempotency_key": req.IdempotencyKey,
		}).Warn("order service rejected order")
		return domain.OrderReceipt{}, &domain.SubmissionError{
			Kind:       domain.SubmissionRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var out CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.OrderReceipt{}, transportError(err)
		}
		return domain.OrderReceipt{}, &domain.SubmissionError{
			Kind:       domain.SubmissionRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	orderID, err := out.OrderID()
	if err != nil {
		return domain.OrderReceipt{}, &domain.SubmissionError{Kind: domain.SubmissionRejected, StatusCode: resp.StatusCode, Err: err}
	}
	return domain.OrderReceipt{OrderID: orderID}, nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.SubmissionError{Kind: domain.SubmissionTimeout, Err: err}
	}
	return &domain.SubmissionError{Kind: domain.SubmissionNetwork, Err: err}
}

var _ domain.OrderService = (*HTTPClient)(nil)
