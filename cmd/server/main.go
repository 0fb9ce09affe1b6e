package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/config"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/server"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.LogConfig()

	st, err := store.New(cfg.UsersDir, cfg.GamesDir)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}

	srv, err := server.New(cfg, st)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	listener, err := net.Listen("tcp", cfg.GetListenAddress())
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GetListenAddress(), err)
	}
	log.Printf("Awalé server listening on %s", cfg.GetListenAddress())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down, closing listener...")
		return listener.Close()
	})

	g.Go(func() error {
		return acceptLoop(gctx, listener, srv)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Printf("server stopped: %v", err)
	}

	performGracefulShutdown(cfg)
}

// acceptLoop accepts connections until ctx is cancelled or the listener
// is closed, handing each one to its own session goroutine.
func acceptLoop(ctx context.Context, listener net.Listener, srv *server.Server) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go srv.HandleConnection(conn)
	}
}

func performGracefulShutdown(cfg *config.Config) {
	log.Println("Waiting for in-flight sessions to wind down...")
	time.Sleep(time.Duration(cfg.ShutdownTimeoutSecs) * time.Second / 10)
	log.Println("Awalé server offline.")
}
