package syncer

import "context"

// Service is the façade the UI talks to: enter the view you are showing,
// leave it when the screen changes, and poke it for a manual refresh.
type Service struct {
	engine *Engine
}

func NewService(engine *Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) EnterAccountsView(ctx context.Context) error {
	return s.engine.EnterView(ctx, CollectionAccounts)
}

func (s *Service) EnterTransactionsView(ctx context.Context) error {
	return s.engine.EnterView(ctx, CollectionTransactions)
}

func (s *Service) LeaveView() {
	s.engine.LeaveView()
}

func (s *Service) RefreshAccounts() error {
	return s.engine.ManualRefresh(CollectionAccounts)
}

func (s *Service) RefreshTransactions() error {
	return s.engine.ManualRefresh(CollectionTransactions)
}

func (s *Service) ActiveCollection() string {
	return s.engine.ActiveCollection()
}
