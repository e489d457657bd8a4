package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/cabinet/client/network"
	"github.com/cbodonnell/cabinet/pkg/state"
)

// DefaultStatusInterval is how often the transport status is refreshed.
const DefaultStatusInterval = 500 * time.Millisecond

// TransportStatusWorker mirrors the supervisor's status into the UI model.
type TransportStatusWorker struct {
	status       func(ctx context.Context) (network.Status, error)
	stateManager state.StateManager
	interval     time.Duration
}

type NewTransportStatusWorkerOptions struct {
	// Status reads the supervisor status on its event loop.
	Status       func(ctx context.Context) (network.Status, error)
	StateManager state.StateManager
	Interval     time.Duration
}

func NewTransportStatusWorker(opts NewTransportStatusWorkerOptions) *TransportStatusWorker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	return &TransportStatusWorker{
		status:       opts.Status,
		stateManager: opts.StateManager,
		interval:     interval,
	}
}

func (w *TransportStatusWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *TransportStatusWorker) refresh(ctx context.Context) {
	status, err := w.status(ctx)
	if err != nil {
		// the loop is gone or busy, try again next tick
		return
	}
	w.stateManager.SetTransport(DescribeStatus(status))
}

// DescribeStatus renders a status for display.
func DescribeStatus(s network.Status) string {
	switch {
	case s.Kind == "":
		if s.SerialOwned {
			return fmt.Sprintf("WAITING FOR %s", s.SerialPort)
		}
		return "RECONNECTING"
	case !s.Open:
		return fmt.Sprintf("CONNECTING (%s)", s.Kind)
	case s.Kind == network.KindSerial.String():
		return fmt.Sprintf("SERIAL %s", s.SerialPort)
	default:
		return "SOCKET"
	}
}
