package fee

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

type feeRepo interface {
	Revenue(ctx context.Context, businessID string, p domain.Period) (decimal.Decimal, error)
	Refresh(ctx context.Context, businessID string, p domain.Period) (*domain.AdminFeePayment, error)
	MarkPaid(ctx context.Context, businessID string, p domain.Period, method string, paidAt time.Time) (*domain.AdminFeePayment, error)
	ListForPeriod(ctx context.Context, p domain.Period) ([]domain.AdminFeePayment, error)
}

type businessLister interface {
	ListAll(ctx context.Context) ([]domain.Business, error)
}

// Service computes the platform fee owed by each business per period.
type Service struct {
	repo       feeRepo
	businesses businessLister
	logger     *log.Logger
	now        func() time.Time
}

func New(repo feeRepo, businesses businessLister, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, businesses: businesses, logger: logger, now: time.Now}
}

// Period resolves the query parameters of a fee request: an explicit
// from/to date pair wins over a YYYY-MM month, which defaults to the
// current month.
func (s *Service) Period(month, from, to string) (domain.Period, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return domain.ParseMonth(strings.TrimSpace(month), s.now())
	}
	if from == "" || to == "" {
		return domain.Period{}, domain.Invalid("from and to must be given together")
	}
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return domain.Period{}, domain.Invalid("from must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return domain.Period{}, domain.Invalid("to must be YYYY-MM-DD")
	}
	p := domain.Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return domain.Period{}, err
	}
	return p, nil
}

// ComputeAdminFee returns the fee-eligible revenue and the fee on it.
func (s *Service) ComputeAdminFee(ctx context.Context, businessID string, p domain.Period) (decimal.Decimal, decimal.Decimal, error) {
	if err := p.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	revenue, err := s.repo.Revenue(ctx, businessID, p)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return revenue, domain.AdminFee(revenue), nil
}

// Ledger refreshes and returns the business's ledger row for p.
func (s *Service) Ledger(ctx context.Context, businessID string, p domain.Period) (*domain.AdminFeePayment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Refresh(ctx, businessID, p)
}

// LedgersForPeriod refreshes every business's row for p.
func (s *Service) LedgersForPeriod(ctx context.Context, p domain.Period) ([]domain.AdminFeePayment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	businesses, err := s.businesses.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range businesses {
		if _, err := s.repo.Refresh(ctx, b.ID, p); err != nil {
			s.logger.Printf("fee: refresh business_id=%s error=%v", b.ID, err)
			return nil, err
		}
	}
	return s.repo.ListForPeriod(ctx, p)
}

func (s *Service) MarkPaid(ctx context.Context, businessID string, p domain.Period, method string) (*domain.AdminFeePayment, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, domain.Invalid("payment_method required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.MarkPaid(ctx, businessID, p, method, s.now().UTC())
}
