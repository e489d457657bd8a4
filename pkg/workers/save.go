package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/repositories"
)

// SerialPortKey is the repository key of the remembered serial device.
const SerialPortKey = "serialPort"

const saveTimeout = 5 * time.Second

type SaveSerialPortRequest struct {
	Port string
}

// SaveSerialPortWorker persists the remembered serial device off the
// event loop.
type SaveSerialPortWorker struct {
	repository     repositories.Repository
	saveSerialPort <-chan SaveSerialPortRequest
}

type NewSaveSerialPortWorkerOptions struct {
	Repository     repositories.Repository
	SaveSerialPort <-chan SaveSerialPortRequest
}

func NewSaveSerialPortWorker(opts NewSaveSerialPortWorkerOptions) *SaveSerialPortWorker {
	return &SaveSerialPortWorker{
		repository:     opts.Repository,
		saveSerialPort: opts.SaveSerialPort,
	}
}

// Start saves requests until ctx is done or the channel is closed.
func (w *SaveSerialPortWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.saveSerialPort:
			if !ok {
				return
			}
			w.save(ctx, req)
		}
	}
}

func (w *SaveSerialPortWorker) save(ctx context.Context, req SaveSerialPortRequest) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := w.repository.Set(ctx, SerialPortKey, req.Port); err != nil {
		log.Error("Failed to save serial port %s: %v", req.Port, err)
		return
	}
	log.Debug("Saved serial port %s", req.Port)
}

// LoadSerialPort returns the remembered serial device, or "" if none was saved.
func LoadSerialPort(ctx context.Context, repository repositories.Repository) (string, error) {
	port, err := repository.Get(ctx, SerialPortKey)
	if err != nil {
		if repositories.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return port, nil
}
