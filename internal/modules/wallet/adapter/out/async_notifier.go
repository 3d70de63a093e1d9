package out

import (
	"context"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"studypact/internal/modules/wallet/domain"
	walletout "studypact/internal/modules/wallet/port/out"
)

// AsyncNotifier queues notices for a single worker so callers never wait on
// a slow sink. A full queue drops the notice.
type AsyncNotifier struct {
	next    walletout.Notifier
	queue   chan domain.Notice
	log     hclog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsyncNotifier(next walletout.Notifier, size int, logger hclog.Logger) *AsyncNotifier {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	n := &AsyncNotifier{
		next:    next,
		queue:   make(chan domain.Notice, size),
		log:     logger,
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *AsyncNotifier) Notify(_ context.Context, notice domain.Notice) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return nil
	}
	select {
	case n.queue <- notice:
	default:
		n.log.Warn("notice queue full, dropping", "kind", notice.Kind)
	}
	return nil
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	for notice := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		if err := n.next.Notify(ctx, notice); err != nil {
			n.log.Warn("deliver notice", "kind", notice.Kind, "error", err)
		}
		cancel()
	}
}

// Close stops accepting notices and waits for the queued ones to be delivered.
func (n *AsyncNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()
	<-n.done
}
