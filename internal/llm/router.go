package llm

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sells-group/segment-research/internal/metrics"
)

// Router alternates calls between a primary and an optional secondary
// provider. A failed secondary call is served by the primary instead, so
// callers never see secondary errors. Alternation is deterministic only
// for sequential callers.
type Router struct {
	primary   Completer
	secondary Completer
	turn      atomic.Uint64
}

// NewRouter creates a router. secondary may be nil.
func NewRouter(primary, secondary Completer) *Router {
	return &Router{primary: primary, secondary: secondary}
}

// Create routes the request: even turns go to the primary, odd turns to
// the secondary when one is configured.
func (r *Router) Create(ctx context.Context, req Request) (*Response, error) {
	n := r.turn.Add(1) - 1
	if r.secondary == nil || n%2 == 0 {
		return r.primary.Create(ctx, req)
	}

	resp, err := r.secondary.Create(ctx, req)
	if err == nil {
		return resp, nil
	}

	zap.L().Warn("llm: secondary failed, failing over to primary",
		zap.String("model", req.Model),
		zap.Uint64("turn", n),
		zap.Error(err),
	)
	metrics.LLMFailovers.Inc()
	return r.primary.Create(ctx, req)
}

// CreatePrimary sends the request to the primary without consuming a turn.
func (r *Router) CreatePrimary(ctx context.Context, req Request) (*Response, error) {
	return r.primary.Create(ctx, req)
}

// Turns reports how many routed calls have been made.
func (r *Router) Turns() uint64 {
	return r.turn.Load()
}
