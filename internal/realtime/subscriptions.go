// README: Order subscription index.
package realtime

import (
	"sync"

	"mealmesh/internal/types"
)

// SubscriptionIndex tracks which users asked for updates on which orders.
// Both directions are indexed so a disconnect can drop a user's
// subscriptions without scanning every order.
type SubscriptionIndex struct {
	mu      sync.RWMutex
	byOrder map[types.ID]map[types.ID]struct{}
	byUser  map[types.ID]map[types.ID]struct{}
}

func NewSubscriptionIndex() *SubscriptionIndex {
	return &SubscriptionIndex{
		byOrder: make(map[types.ID]map[types.ID]struct{}),
		byUser:  make(map[types.ID]map[types.ID]struct{}),
	}
}

func (s *SubscriptionIndex) Subscribe(userID, orderID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byOrder[orderID] == nil {
		s.byOrder[orderID] = make(map[types.ID]struct{})
	}
	s.byOrder[orderID][userID] = struct{}{}
	if s.byUser[userID] == nil {
		s.byUser[userID] = make(map[types.ID]struct{})
	}
	s.byUser[userID][orderID] = struct{}{}
}

func (s *SubscriptionIndex) Unsubscribe(userID, orderID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(userID, orderID)
}

// DropUser removes every subscription the user holds. Called when a
// connection's reconnect grace expires.
func (s *SubscriptionIndex) DropUser(userID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for orderID := range s.byUser[userID] {
		s.removeLocked(userID, orderID)
	}
}

// Subscribers returns the users watching an order.
func (s *SubscriptionIndex) Subscribers(orderID types.ID) []types.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]types.ID, 0, len(s.byOrder[orderID]))
	for id := range s.byOrder[orderID] {
		users = append(users, id)
	}
	return users
}

func (s *SubscriptionIndex) removeLocked(userID, orderID types.ID) {
	if set := s.byOrder[orderID]; set != nil {
		delete(set, userID)
		if len(set) == 0 {
			delete(s.byOrder, orderID)
		}
	}
	if set := s.byUser[userID]; set != nil {
		delete(set, orderID)
		if len(set) == 0 {
			delete(s.byUser, userID)
		}
	}
}