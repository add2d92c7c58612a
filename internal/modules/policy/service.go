// README: Fulfillment policy checks per vendor.
package policy

import (
	"context"

	"mealmesh/internal/types"
)

// PolicyStore is the lookup surface the service needs; *Store implements it.
type PolicyStore interface {
	Get(ctx context.Context, vendorID types.ID) (Policy, error)
	SetMethod(ctx context.Context, vendorID types.ID, m Method, enabled bool) error
}

type Service struct {
	store PolicyStore
}

func NewService(store PolicyStore) *Service {
	return &Service{store: store}
}

// IsEnabled fails with MethodNotEnabledError when the vendor has the method
// switched off.
func (s *Service) IsEnabled(ctx context.Context, vendorID types.ID, m Method) error {
	p, err := s.store.Get(ctx, vendorID)
	if err != nil {
		return err
	}
	allowed, err := p.allows(m)
	if err != nil {
		return err
	}
	if !allowed {
		return &MethodNotEnabledError{Method: m}
	}
	return nil
}

func (s *Service) SetMethod(ctx context.Context, vendorID types.ID, m Method, enabled bool) error {
	return s.store.SetMethod(ctx, vendorID, m, enabled)
}