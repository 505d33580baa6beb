package order

import (
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"visaflow/internal/config"
	"visaflow/internal/documents"
	"visaflow/internal/domain"
	"visaflow/internal/evaluation"
	"visaflow/internal/infrastructure/metrics"
	"visaflow/internal/infrastructure/redis"
	"visaflow/internal/matching"
	"visaflow/internal/order/controller"
	orderrepo "visaflow/internal/order/repository"
	"visaflow/internal/order/service"
	"visaflow/internal/order/usecase"
	"visaflow/internal/payment"
	"visaflow/internal/pricing"
)

type Module struct {
	Workflow *controller.WorkflowController
	Registry *controller.RegistryController
}

// NewModule builds the order workflow. A nil db selects the in-memory
// repositories; a nil rdb disables stage-change events.
func NewModule(db *sql.DB, rdb goredis.Cmdable, directory matching.Directory, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*Module, error) {
	var (
		orders  service.OrderRepository
		matches interface {
			service.MatchRepository
			matching.MatchStore
		}
	)
	if db != nil {
		orders = orderrepo.NewMySQLOrderRepository(db)
		matches = orderrepo.NewMySQLMatchRepository(db)
	} else {
		orders = orderrepo.NewInMemoryOrderRepository()
		matches = orderrepo.NewInMemoryMatchRepository()
	}

	canonical, err := domain.ParseVisaCategory(cfg.Registry.CanonicalCategory)
	if err != nil {
		return nil, fmt.Errorf("registry canonical category: %w", err)
	}
	registry := evaluation.NewRegistry(nil, evaluation.RegistryConfig{
		CacheEnabled:      cfg.Registry.CacheEnabled,
		Concurrency:       cfg.Registry.Concurrency,
		CanonicalCategory: canonical,
	}, m, logger)

	calculator, err := newCalculator(cfg.Order)
	if err != nil {
		return nil, err
	}

	gateway, err := newGateway(cfg.Payment, logger)
	if err != nil {
		return nil, err
	}

	deps := service.Dependencies{
		Orders:    orders,
		Matches:   matches,
		Registry:  registry,
		Matcher:   matching.NewEngine(directory, matches, logger, m),
		Pricing:   calculator,
		Payments:  gateway,
		Documents: documents.NewChecklistValidator(cfg.Order.MaxDocumentBytes),
	}
	if rdb != nil {
		deps.Events = redis.NewEventPublisher(rdb, cfg.Redis.Channel, logger)
	}

	svc := service.NewWorkflowService(deps, logger, m)
	uc := usecase.NewWorkflowUseCase(svc, logger, cfg.Order.MaxRetryAttempts)

	return &Module{
		Workflow: controller.NewWorkflowController(uc, logger),
		Registry: controller.NewRegistryController(registry, logger),
	}, nil
}

func newCalculator(cfg config.OrderConfig) (*pricing.Calculator, error) {
	pc := pricing.DefaultConfig()
	if cfg.UrgentRate != "" {
		rate, err := decimal.NewFromString(cfg.UrgentRate)
		if err != nil {
			return nil, fmt.Errorf("parsing order.urgentRate %q: %w", cfg.UrgentRate, err)
		}
		pc.UrgentRate = rate
	}
	if cfg.ConsultationFee > 0 {
		pc.ConsultationFee = decimal.NewFromInt(cfg.ConsultationFee)
	}
	return pricing.NewCalculator(pc), nil
}

func newGateway(cfg config.PaymentConfig, logger *zap.Logger) (service.PaymentGateway, error) {
	switch cfg.Provider {
	case "mercadopago":
		gw, err := payment.NewMercadoPagoGateway(cfg.AccessToken, logger)
		if err != nil {
			return nil, fmt.Errorf("creating mercadopago gateway: %w", err)
		}
		return gw, nil
	default:
		return payment.NewStubGateway(logger), nil
	}
}
