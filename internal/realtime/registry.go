// README: Connection registry; one live connection per user, grace timers, sweep.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mealmesh/internal/types"
)

const (
	// DefaultReconnectGrace is how long a user's subscriptions survive a
	// dropped connection before they are purged.
	DefaultReconnectGrace = 60 * time.Second

	// DefaultSweepInterval drives the background scan for dead connections.
	DefaultSweepInterval = 60 * time.Second
)

type entry struct {
	conn        Conn
	role        types.Role
	connectedAt time.Time
	grace       *time.Timer
}

// Registry holds at most one live connection per user. A second connection
// for the same user supersedes the first.
type Registry struct {
	mu    sync.Mutex
	conns map[types.ID]*entry

	subs   *SubscriptionIndex
	grace  time.Duration
	sweep  time.Duration
	logger zerolog.Logger
}

func NewRegistry(subs *SubscriptionIndex, grace, sweep time.Duration, logger zerolog.Logger) *Registry {
	if grace <= 0 {
		grace = DefaultReconnectGrace
	}
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	return &Registry{
		conns:  make(map[types.ID]*entry),
		subs:   subs,
		grace:  grace,
		sweep:  sweep,
		logger: logger,
	}
}

// Register binds a connection to a user. Any prior connection for the same
// user is closed with CloseSuperseded, and a pending grace purge from an
// earlier disconnect is cancelled.
func (r *Registry) Register(userID types.ID, role types.Role, conn Conn) {
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = &entry{conn: conn, role: role, connectedAt: time.Now()}
	r.mu.Unlock()

	if prev != nil {
		if prev.grace != nil {
			prev.grace.Stop()
		}
		_ = prev.conn.Close(CloseSuperseded, "superseded by newer connection")
		r.logger.Debug().Str("user_id", string(userID)).Msg("connection superseded")
	}
}

// ConnectionClosed records that a connection's read loop ended. The entry is
// kept for the grace period so a quick reconnect keeps its subscriptions; if
// no reconnect arrives the user's subscriptions are dropped.
func (r *Registry) ConnectionClosed(userID types.ID, conn Conn) {
	r.mu.Lock()
	cur := r.conns[userID]
	if cur == nil || cur.conn != conn {
		// Already superseded or purged.
		r.mu.Unlock()
		return
	}
	cur.grace = time.AfterFunc(r.grace, func() {
		r.purgeIfCurrent(userID, conn)
	})
	r.mu.Unlock()
}

func (r *Registry) purgeIfCurrent(userID types.ID, conn Conn) {
	r.mu.Lock()
	cur := r.conns[userID]
	if cur == nil || cur.conn != conn {
		r.mu.Unlock()
		return
	}
	delete(r.conns, userID)
	r.mu.Unlock()

	if r.subs != nil {
		r.subs.DropUser(userID)
	}
	r.logger.Debug().Str("user_id", string(userID)).Msg("connection purged after grace")
}

// SendToUser delivers a message to the user's connection if one is live.
// A failed write evicts the connection immediately.
func (r *Registry) SendToUser(userID types.ID, v any) bool {
	r.mu.Lock()
	cur := r.conns[userID]
	r.mu.Unlock()
	if cur == nil || !cur.conn.IsOpen() {
		return false
	}
	if err := cur.conn.WriteJSON(v); err != nil {
		r.evict(userID, cur.conn)
		return false
	}
	return true
}

// BroadcastToRole delivers a message to every connected user with the role.
func (r *Registry) BroadcastToRole(role types.Role, v any) int {
	return r.BroadcastToRoleExcept(role, nil, v)
}

// BroadcastToRoleExcept skips users already reached through another path.
func (r *Registry) BroadcastToRoleExcept(role types.Role, skip map[types.ID]struct{}, v any) int {
	r.mu.Lock()
	targets := make(map[types.ID]Conn)
	for id, e := range r.conns {
		if e.role != role {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		targets[id] = e.conn
	}
	r.mu.Unlock()

	sent := 0
	for id, conn := range targets {
		if !conn.IsOpen() {
			continue
		}
		if err := conn.WriteJSON(v); err != nil {
			r.evict(id, conn)
			continue
		}
		sent++
	}
	return sent
}

func (r *Registry) evict(userID types.ID, conn Conn) {
	r.mu.Lock()
	cur := r.conns[userID]
	if cur == nil || cur.conn != conn {
		r.mu.Unlock()
		return
	}
	if cur.grace != nil {
		cur.grace.Stop()
	}
	delete(r.conns, userID)
	r.mu.Unlock()

	_ = conn.Close(CloseNormal, "")
	if r.subs != nil {
		r.subs.DropUser(userID)
	}
}

// Connected reports whether the user currently has a registered connection.
func (r *Registry) Connected(userID types.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[userID] != nil
}

// RunSweeper periodically drops entries whose connection went dead without a
// clean close. Runs until the context is cancelled.
func (r *Registry) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *Registry) sweepOnce() {
	r.mu.Lock()
	var dead []types.ID
	for id, e := range r.conns {
		if !e.conn.IsOpen() && e.grace == nil {
			dead = append(dead, id)
		}
	}
	r.mu.Unlock()

	for _, id := range dead {
		r.mu.Lock()
		cur := r.conns[id]
		if cur != nil && !cur.conn.IsOpen() && cur.grace == nil {
			delete(r.conns, id)
		} else {
			cur = nil
		}
		r.mu.Unlock()
		if cur != nil && r.subs != nil {
			r.subs.DropUser(id)
			r.logger.Debug().Str("user_id", string(id)).Msg("dead connection swept")
		}
	}
}