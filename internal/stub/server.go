// Package stub реализует локальную заглушку удалённого биллингового сервиса.
// Заглушка отдаёт тот же интерфейс /v2, который потребляет клиент шлюза,
// с детерминированными данными и инъекцией отказов для проверки путей повтора.
package stub

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/billing-simulator/internal/middleware"
	"github.com/mmeshcher/billing-simulator/internal/model"
)

// Server хранит набор данных заглушки и обслуживает HTTP-интерфейс /v2.
type Server struct {
	logger *zap.Logger

	mu          sync.Mutex
	advances    []*model.Advance
	revenues    map[string]decimal.Decimal
	completed   map[int]bool
	failCharges int
	failReports int
}

// NewServer создаёт заглушку с пустым набором данных.
func NewServer(logger *zap.Logger) *Server {
	return &Server{
		logger:    logger,
		revenues:  make(map[string]decimal.Decimal),
		completed: make(map[int]bool),
	}
}

// SeedAdvance добавляет аванс в набор данных заглушки.
func (s *Server) SeedAdvance(advance *model.Advance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advances = append(s.advances, advance)
}

// SeedRevenue задаёт выручку клиента за указанную дату.
func (s *Server) SeedRevenue(customerID int, date model.Date, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revenues[revenueKey(customerID, date)] = amount
}

// FailNextCharges заставляет заглушку отклонить n следующих запросов на списание.
func (s *Server) FailNextCharges(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCharges = n
}

// FailNextReports заставляет заглушку отклонить n следующих отчётов о завершении.
func (s *Server) FailNextReports(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReports = n
}

// Completed сообщает, получила ли заглушка отчёт о завершении аванса.
func (s *Server) Completed(advanceID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[advanceID]
}

// SeedDemo наполняет заглушку демонстрационным набором: два аванса и выручка
// их клиентов за январь 2022 года, с пропуском данных на один день у второго клиента.
func (s *Server) SeedDemo() {
	s.SeedAdvance(&model.Advance{
		ID:                  1001,
		CustomerID:          1,
		Created:             model.NewDate(2022, time.January, 2),
		TotalAdvanced:       decimal.RequireFromString("60000.00"),
		Fee:                 decimal.RequireFromString("2000.00"),
		MandateID:           102,
		RepaymentStartDate:  model.NewDate(2022, time.January, 7),
		RepaymentPercentage: decimal.NewFromInt(11),
	})
	s.SeedAdvance(&model.Advance{
		ID:                  1002,
		CustomerID:          2,
		Created:             model.NewDate(2022, time.January, 1),
		TotalAdvanced:       decimal.RequireFromString("500.00"),
		Fee:                 decimal.RequireFromString("50.00"),
		MandateID:           103,
		RepaymentStartDate:  model.NewDate(2022, time.January, 2),
		RepaymentPercentage: decimal.NewFromInt(20),
	})

	for day := 1; day <= 9; day++ {
		date := model.NewDate(2022, time.January, day)
		s.SeedRevenue(1, date, decimal.RequireFromString("1234.56"))
		if day != 3 {
			// У второго клиента нет данных за 3 января: списание уйдёт в очередь.
			s.SeedRevenue(2, date, decimal.RequireFromString("800.00"))
		}
	}
}

// Router настраивает HTTP-маршруты заглушки.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(s.logger))

	r.Route("/v2", func(r chi.Router) {
		r.Get("/advances", s.getAdvances)
		r.Get("/customers/{customerID}/revenues/{date}", s.getRevenue)
		r.Post("/mandates/{mandateID}/charge", s.postCharge)
		r.Post("/advances/{advanceID}/billing_complete", s.postBillingComplete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

type advancesResponse struct {
	Advances []*model.Advance `json:"advances"`
}

func (s *Server) getAdvances(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	advances := make([]*model.Advance, len(s.advances))
	copy(advances, s.advances)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(advancesResponse{Advances: advances}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type revenueResponse struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) getRevenue(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.Atoi(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	date, err := model.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	amount, ok := s.revenues[revenueKey(customerID, date)]
	s.mu.Unlock()

	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(revenueResponse{Amount: amount}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type chargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type chargeReceipt struct {
	ReceiptID string          `json:"receipt_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (s *Server) postCharge(w http.ResponseWriter, r *http.Request) {
	mandateID, err := strconv.Atoi(chi.URLParam(r, "mandateID"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.failCharges > 0 {
		s.failCharges--
		s.mu.Unlock()
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	known := false
	for _, advance := range s.advances {
		if advance.MandateID == mandateID {
			known = true
			break
		}
	}
	s.mu.Unlock()

	if !known {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	receipt := chargeReceipt{ReceiptID: uuid.NewString(), Amount: req.Amount}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(receipt); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) postBillingComplete(w http.ResponseWriter, r *http.Request) {
	advanceID, err := strconv.Atoi(chi.URLParam(r, "advanceID"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.failReports > 0 {
		s.failReports--
		s.mu.Unlock()
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.completed[advanceID] = true
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func revenueKey(customerID int, date model.Date) string {
	return strconv.Itoa(customerID) + "/" + date.String()
}
