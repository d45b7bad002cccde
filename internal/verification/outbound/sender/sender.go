// Package sender holds the per-channel delivery adapters used by the
// dispatch worker. Each adapter wraps one provider API and knows nothing
// about codes beyond formatting them for its medium.
package sender

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

// Sender delivers a one-time code to a destination on a single channel.
type Sender interface {
	Send(ctx context.Context, destination, code string) error
}

// Registry resolves the sender for a channel.
type Registry struct {
	senders map[entity.Channel]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[entity.Channel]Sender)}
}

// Register binds a sender to a channel, replacing any previous binding.
func (r *Registry) Register(ch entity.Channel, s Sender) {
	r.senders[ch] = s
}

// Resolve returns the sender for ch.
func (r *Registry) Resolve(ch entity.Channel) (Sender, error) {
	s, ok := r.senders[ch]
	if !ok {
		return nil, fmt.Errorf("no sender registered for channel %q", ch)
	}

	return s, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{Timeout: timeout}
}
