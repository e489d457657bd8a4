package main

import (
	"context"
	"fmt"

	"github.com/cbodonnell/cabinet/client/game"
	"github.com/cbodonnell/cabinet/client/network"
	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/loop"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
	"github.com/cbodonnell/cabinet/pkg/state"
	"github.com/cbodonnell/cabinet/pkg/workers"
)

// cabinet runs operator requests on the event loop.
type cabinet struct {
	loop         *loop.Loop
	controller   *game.Controller
	supervisor   *network.Supervisor
	stateManager state.StateManager
	store        *scoreboard.Store
	listPorts    network.PortLister
	savePort     chan<- workers.SaveSerialPortRequest
}

func (c *cabinet) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	return c.stateManager.Get(), nil
}

func (c *cabinet) Scores(ctx context.Context) ([]scoreboard.Entry, error) {
	return c.store.Ranked(ctx)
}

func (c *cabinet) SubmitName(ctx context.Context, name string) error {
	var err error
	if doErr := c.loop.Do(ctx, func() { err = c.controller.SubmitName(name) }); doErr != nil {
		return doErr
	}
	return err
}

func (c *cabinet) TypeName(ctx context.Context, value string) (string, error) {
	var typed string
	if err := c.loop.Do(ctx, func() { typed = c.controller.TypeName(value) }); err != nil {
		return "", err
	}
	return typed, nil
}

func (c *cabinet) RequestDevice(ctx context.Context, port string) error {
	if port == "" {
		var err error
		if port, err = c.choosePort(ctx); err != nil {
			return err
		}
	}

	var err error
	if doErr := c.loop.Do(ctx, func() { err = c.supervisor.RequestDevice(port) }); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	select {
	case c.savePort <- workers.SaveSerialPortRequest{Port: port}:
	default:
		log.Warn("Dropping save of serial port %s", port)
	}
	return nil
}

// status reads the supervisor status on the event loop.
func (c *cabinet) status(ctx context.Context) (network.Status, error) {
	var status network.Status
	err := c.loop.Do(ctx, func() { status = c.supervisor.Status() })
	return status, err
}

// choosePort prefers the remembered device and falls back to the first
// port the system lists.
func (c *cabinet) choosePort(ctx context.Context) (string, error) {
	status, err := c.status(ctx)
	if err != nil {
		return "", err
	}
	ports, err := c.listPorts()
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial port available")
	}
	for _, p := range ports {
		if p == status.SerialPort {
			return p, nil
		}
	}
	return ports[0], nil
}

// keyboard adapts the display's non-blocking input to the cabinet.
type keyboard struct {
	cabinet *cabinet
}

func (k keyboard) TypeName(value string) {
	k.cabinet.loop.Post(func() { k.cabinet.controller.TypeName(value) })
}

func (k keyboard) SubmitName(name string) {
	k.cabinet.loop.Post(func() {
		if err := k.cabinet.controller.SubmitName(name); err != nil {
			log.Warn("Name %q was not saved: %v", name, err)
		}
	})
}

func (k keyboard) RequestDevice() {
	go func() {
		if err := k.cabinet.RequestDevice(context.Background(), ""); err != nil {
			log.Warn("Failed to request serial device: %v", err)
		}
	}()
}
