package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/api"
	"github.com/wolfeidau/openbusser/internal/client"
	"github.com/wolfeidau/openbusser/internal/session"
	"github.com/wolfeidau/openbusser/internal/store"
	"github.com/wolfeidau/openbusser/internal/store/file"
	"github.com/wolfeidau/openbusser/internal/store/memory"
)

type Globals struct {
	Server    string
	Timeout   time.Duration
	DataDir   string
	CacheDir  string
	Ephemeral bool
	Debug     bool
	Version   string

	// Out receives command output, os.Stdout when nil.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

// clientConfig maps the global flags onto the HTTP client configuration.
// A zero Timeout disables the request timeout.
func (g *Globals) clientConfig() client.Config {
	config := client.DefaultConfig()
	if g.Server != "" {
		config.ServerURL = g.Server
	}
	config.Timeout = g.Timeout
	config.CacheDir = g.CacheDir

	return config
}

func (g *Globals) apiClient() *api.Client {
	return client.New(g.clientConfig())
}

func (g *Globals) siteURL() string {
	if g.Server != "" {
		return g.Server
	}
	return client.DefaultConfig().ServerURL
}

func (g *Globals) kvStore() (store.KVStore, error) {
	if g.Ephemeral {
		return memory.NewKVStore(), nil
	}

	kv, err := file.NewKVStore(g.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	log.Debug().Str("path", kv.Path()).Msg("using file session store")

	return kv, nil
}

func (g *Globals) sessionManager(backend session.Backend) (*session.Manager, error) {
	kv, err := g.kvStore()
	if err != nil {
		return nil, err
	}
	return session.NewManager(session.NewStore(kv), backend), nil
}

// withInterrupt cancels the returned context on SIGINT or SIGTERM.
func withInterrupt(ctx context.Context, w io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			fmt.Fprintln(w, "Received interrupt signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
