package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/cabinet/client/config"
	"github.com/cbodonnell/cabinet/client/display"
	"github.com/cbodonnell/cabinet/client/game"
	"github.com/cbodonnell/cabinet/client/network"
	"github.com/cbodonnell/cabinet/pkg/api"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/loop"
	"github.com/cbodonnell/cabinet/pkg/repositories"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
	"github.com/cbodonnell/cabinet/pkg/state"
	"github.com/cbodonnell/cabinet/pkg/version"
	"github.com/cbodonnell/cabinet/pkg/workers"
)

func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, cfg.LogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", cfg.LogLevel)
	log.Info("Starting cabinet version %s", version.Get())

	if err := run(cfg); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, err := repositories.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open repository: %v", err)
	}
	defer repository.Close(context.Background())

	serialPort := cfg.SerialPort
	if serialPort == "" {
		serialPort, err = workers.LoadSerialPort(ctx, repository)
		if err != nil {
			log.Warn("Failed to load remembered serial port: %v", err)
		}
	}

	eventLoop := loop.New(loop.DefaultQueueSize)
	stateManager := state.NewInMemoryStateManager()
	store := scoreboard.NewStore(repository, scoreboard.DefaultKey)

	controller := game.NewController(game.NewControllerOptions{
		Executor:         eventLoop,
		UI:               stateManager,
		Store:            store,
		EndScreenTimeout: cfg.EndScreenTimeout,
	})
	supervisor := network.NewSupervisor(network.NewSupervisorOptions{
		Executor: eventLoop,
		Sink:     controller,
		NewSocket: func() network.Transport {
			return network.NewWSTransport(cfg.SocketURL)
		},
		NewSerial: func(port string) network.Transport {
			return network.NewSerialTransport(port, cfg.BaudRate)
		},
		ListPorts:  network.ListSerialPorts,
		SerialPort: serialPort,
	})

	savePortChannelSize := 4
	savePortChan := make(chan workers.SaveSerialPortRequest, savePortChannelSize)
	cab := &cabinet{
		loop:         eventLoop,
		controller:   controller,
		supervisor:   supervisor,
		stateManager: stateManager,
		store:        store,
		listPorts:    network.ListSerialPorts,
		savePort:     savePortChan,
	}

	// the loop outlives ctx so shutdown can still run on it
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()
	go eventLoop.Run(loopCtx)
	eventLoop.Post(func() {
		controller.Start()
		supervisor.Start(ctx)
	})

	go supervisor.WatchDevices(ctx, network.DefaultDeviceWatchInterval)
	go workers.NewSaveSerialPortWorker(workers.NewSaveSerialPortWorkerOptions{
		Repository:     repository,
		SaveSerialPort: savePortChan,
	}).Start(ctx)
	go workers.NewTransportStatusWorker(workers.NewTransportStatusWorkerOptions{
		Status:       cab.status,
		StateManager: stateManager,
	}).Start(ctx)

	var apiServer *api.APIServer
	if cfg.APIPort > 0 {
		apiServer = api.NewAPIServer(api.NewAPIServerOptions{
			Port:    cfg.APIPort,
			Cabinet: cab,
		})
		go apiServer.Start()
	}

	if cfg.Headless {
		log.Info("Running headless")
		<-ctx.Done()
	} else {
		g := display.NewGame(stateManager, keyboard{cabinet: cab})
		if err := display.Run(g, fmt.Sprintf("Cabinet %s", version.Get())); err != nil {
			log.Error("Display stopped: %v", err)
		}
	}
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eventLoop.Do(shutdownCtx, supervisor.Stop); err != nil {
		log.Warn("Failed to stop supervisor: %v", err)
	}
	if apiServer != nil {
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Warn("Failed to stop API server: %v", err)
		}
	}
	stop()
	return nil
}
