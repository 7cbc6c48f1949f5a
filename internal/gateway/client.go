// Package gateway предоставляет клиент удалённого сервиса авансов, выручки и мандатов.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/billing-simulator/internal/model"
)

const todayHeader = "Today"

// Client инкапсулирует HTTP-взаимодействие с удалённым биллинговым сервисом.
// Политика таймаутов и повторов запросов принадлежит клиенту: ядро цикла видит
// только доменные исходы — «данных нет» и «списание не проведено».
type Client struct {
	baseURL    string
	getClient  *http.Client
	postClient *http.Client
	logger     *zap.Logger
}

// advancesResponse описывает ответ сервиса со списком авансов.
type advancesResponse struct {
	Advances []*model.Advance `json:"advances"`
}

// NewClient создаёт клиент шлюза для указанного адреса.
// Повторы выполняются только для идемпотентных GET-запросов; неуспешное
// списание не повторяется на транспортном уровне — оно уйдёт в очередь
// и будет проведено в один из следующих дней.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.HTTPClient.Timeout = 5 * time.Second
	retryClient.Logger = nil

	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		baseURL:    base,
		getClient:  retryClient.StandardClient(),
		postClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Advances запрашивает полный список авансов на указанный день.
// Любая ошибка возвращается вызывающему и трактуется им как «новых авансов нет».
func (c *Client) Advances(ctx context.Context, today model.Date) ([]*model.Advance, error) {
	url := fmt.Sprintf("%s/v2/advances", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(todayHeader, today.String())

	resp, err := c.getClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result advancesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.Advances, nil
}

// Revenue запрашивает выручку клиента за дату forDate.
// Всегда возвращает запись Revenue: сумма отсутствует, если данных ещё нет,
// сервис ответил ошибкой или запрос не удался.
func (c *Client) Revenue(ctx context.Context, today model.Date, customerID int, forDate model.Date) model.Revenue {
	empty := model.Revenue{CustomerID: customerID, Date: forDate}

	url := fmt.Sprintf("%s/v2/customers/%d/revenues/%s", c.baseURL, customerID, forDate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("create revenue request", zap.Error(err))
		return empty
	}
	req.Header.Set(todayHeader, today.String())

	resp, err := c.getClient.Do(req)
	if err != nil {
		c.logger.Warn("revenue not available",
			zap.Int("customerID", customerID), zap.Stringer("forDate", forDate), zap.Error(err))
		return empty
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("revenue not available",
			zap.Int("customerID", customerID), zap.Stringer("forDate", forDate),
			zap.Int("status", resp.StatusCode))
		return empty
	}

	var result model.Revenue
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("decode revenue response",
			zap.Int("customerID", customerID), zap.Stringer("forDate", forDate), zap.Error(err))
		return empty
	}

	result.CustomerID = customerID
	result.Date = forDate
	return result
}

// Charge отправляет списание по мандату аванса.
// Возвращает true только при подтверждённом проведении; при любом отказе
// считается, что списание не состоялось.
func (c *Client) Charge(ctx context.Context, today model.Date, charge *model.Charge) bool {
	body, err := json.Marshal(charge)
	if err != nil {
		c.logger.Error("encode charge request", zap.Error(err))
		return false
	}

	url := fmt.Sprintf("%s/v2/mandates/%d/charge", c.baseURL, charge.Advance.MandateID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("create charge request", zap.Error(err))
		return false
	}
	req.Header.Set(todayHeader, today.String())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.postClient.Do(req)
	if err != nil {
		c.logger.Warn("charge request failed",
			zap.Int("advanceID", charge.Advance.ID), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("could not charge advance",
			zap.Int("advanceID", charge.Advance.ID),
			zap.Stringer("charge", charge),
			zap.Int("status", resp.StatusCode))
		return false
	}

	c.logger.Info("charged", zap.Stringer("charge", charge))
	return true
}

// ReportComplete сообщает сервису о полном погашении аванса.
// Возвращает true при подтверждении; неуспешный отчёт повторит следующий цикл.
func (c *Client) ReportComplete(ctx context.Context, today model.Date, advanceID int) bool {
	url := fmt.Sprintf("%s/v2/advances/%d/billing_complete", c.baseURL, advanceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		c.logger.Error("create billing complete request", zap.Error(err))
		return false
	}
	req.Header.Set(todayHeader, today.String())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.postClient.Do(req)
	if err != nil {
		c.logger.Warn("billing complete request failed",
			zap.Int("advanceID", advanceID), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("could not report billing complete",
			zap.Int("advanceID", advanceID), zap.Int("status", resp.StatusCode))
		return false
	}

	c.logger.Info("billing reported complete", zap.Int("advanceID", advanceID))
	return true
}
