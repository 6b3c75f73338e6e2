// main.go
// Application entry point: loads configuration, connects the chat session and runs the console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/erilali/jimclient/internal/api"
	"github.com/erilali/jimclient/internal/archive"
	"github.com/erilali/jimclient/internal/event"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/session"
	"github.com/erilali/jimclient/internal/util"
	"github.com/joho/godotenv"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
	exitConnect = 3

	defaultConfigPath = "client_config.json"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "jimclient: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("JIM_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	config, err := util.LoadConfig(configPath)
	if err != nil {
		return exitConfig, err
	}

	logger.InitLogger(config.Log)
	clientLogger := logger.NewLogger("client")
	clientLogger.WithFields(map[string]interface{}{
		"host":      config.Host,
		"port":      config.Port,
		"transport": config.Transport,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.Connect(ctx, config.SessionConfig(), logger.NewLogger("session"))
	if err != nil {
		return exitConnect, err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		_ = sess.Close(context.Background())
		return exitRuntime, fmt.Errorf("terminal: %w", err)
	}
	defer rl.Close()
	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	con := newConsole(ctx, rl.Stdout(), sess, clientLogger)
	sinks := event.Fanout{con}

	var archiveState api.ArchiveState
	if config.NATSURL != "" {
		recorder, err := archive.Open(config.NATSURL, sess.ID(), logger.NewLogger("archive"))
		if err != nil {
			clientLogger.Warnf("Running without transcript archive: %v", err)
		} else {
			defer recorder.Close()
			sinks = append(sinks, recorder)
			con.history = recorder
			archiveState = recorder
		}
	}

	if config.StatusAddr != "" {
		status := api.NewServer(config.StatusAddr, sess, archiveState, logger.NewLogger("api"))
		go func() {
			if err := status.Run(ctx); err != nil {
				clientLogger.Errorf("Status server stopped: %v", err)
			}
		}()
	}

	// Workers and the pump outlive the signal context; Close stops them after
	// the quit message had its chance to leave.
	sess.Start(ctx)
	pumpDone := make(chan error, 1)
	go func() {
		pumpDone <- event.Pump(context.Background(), sess.Events(), sinks)
	}()

	con.Loop(rl)

	if err := sess.Close(context.Background()); err != nil {
		clientLogger.Warnf("Error closing session: %v", err)
	}
	<-pumpDone
	return exitOK, nil
}
