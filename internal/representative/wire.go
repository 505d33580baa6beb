package representative

import (
	"go.uber.org/zap"
)

func NewModule(repo Repository, logger *zap.Logger) *Controller {
	svc := NewService(repo)
	uc := NewSearchUseCase(svc)
	return NewController(uc, logger)
}
