package network

import (
	"context"
	"time"

	"github.com/cbodonnell/cabinet/pkg/log"
)

// DefaultDeviceWatchInterval is how often the port list is polled.
const DefaultDeviceWatchInterval = 2 * time.Second

// WatchDevices polls the serial port list and reports every port that
// appears to the supervisor, on its executor. It returns when ctx is done.
func (s *Supervisor) WatchDevices(ctx context.Context, interval time.Duration) {
	if s.listPorts == nil || s.newSerial == nil {
		return
	}
	if interval <= 0 {
		interval = DefaultDeviceWatchInterval
	}

	w := &deviceWatcher{listPorts: s.listPorts}
	w.poll() // ports present at startup are handled by Start

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, port := range w.poll() {
				port := port
				s.exec.Post(func() { s.DeviceConnected(port) })
			}
		}
	}
}

type deviceWatcher struct {
	listPorts PortLister
	known     map[string]bool
}

// poll returns the ports that appeared since the previous poll.
func (w *deviceWatcher) poll() []string {
	ports, err := w.listPorts()
	if err != nil {
		log.Warn("Failed to list serial ports: %v", err)
		return nil
	}

	present := make(map[string]bool, len(ports))
	var appeared []string
	for _, p := range ports {
		present[p] = true
		if w.known != nil && !w.known[p] {
			appeared = append(appeared, p)
		}
	}
	w.known = present
	return appeared
}
