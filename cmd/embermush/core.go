// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/embermush/embermush/internal/config"
	"github.com/embermush/embermush/internal/extension"
	"github.com/embermush/embermush/internal/extension/capability"
	luahost "github.com/embermush/embermush/internal/extension/lua"
	"github.com/embermush/embermush/internal/host"
	"github.com/embermush/embermush/internal/logging"
	"github.com/embermush/embermush/internal/observability"
	"github.com/embermush/embermush/internal/overlay"
)

const version = "0.2.0"

// NewCoreCmd creates the core subcommand.
func NewCoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "core",
		Short: "Start the core process (host table, overlay, extensions)",
		Long: `Start the core process which owns the host command table, loads
extensions, and serves the command overlay.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runCore(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("metrics-addr", config.Default().MetricsAddr, "metrics listen address")
	cmd.Flags().String("extensions-dir", config.Default().ExtensionsDir, "extensions directory")
	cmd.Flags().String("log-format", config.Default().LogFormat, "log format (json or text)")
	cmd.Flags().String("log-level", config.Default().LogLevel, "log level")

	return cmd
}

func runCore(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault(logging.Options{
		Service: "core",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	})

	table := host.NewMemoryTable()
	seedHostTable(table)

	notifier := extension.NewNotifier()
	enforcer := capability.NewEnforcer()

	// The Lua host is both the extension runtime and the overlay's entry
	// point caller, so it is created first and wired to the service after.
	extHost := luahost.NewHost(nil, enforcer)

	svc, err := overlay.NewService(table, notifier, overlay.WithEntryPoints(extHost))
	if err != nil {
		return err
	}
	extHost.SetService(svc)

	manager := extension.NewManager(cfg.ExtensionsDir, notifier, enforcer, extension.WithHost(extHost))

	var ready atomic.Bool
	obs := observability.NewServer(cfg.MetricsAddr, ready.Load)
	obsErr, err := obs.Start()
	if err != nil {
		return err
	}

	if err := manager.LoadAll(ctx); err != nil {
		slog.Error("extension loading failed", "error", err)
	}
	ready.Store(true)

	slog.Info("core process started",
		"extensions", manager.ListExtensions(),
		"metrics_addr", obs.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-obsErr:
		if err != nil {
			slog.Error("observability server failed", "error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := manager.Close(shutdownCtx); err != nil {
		slog.Error("extension manager close failed", "error", err)
	}
	return obs.Stop(shutdownCtx)
}

// seedHostTable installs the built-in host commands and variables the
// overlay wraps or protects.
func seedHostTable(table *host.MemoryTable) {
	table.Insert(&overlay.HostEntry{
		Name:   "global.say",
		Parent: "global",
		Kind:   overlay.KindCommand,
		Handler: func(_ context.Context, inv *overlay.Invocation) error {
			if inv.Output == nil {
				return nil
			}
			_, err := fmt.Fprintf(inv.Output, "You say: %s\n", strings.Join(inv.Args, " "))
			return err
		},
	})
	table.Insert(&overlay.HostEntry{
		Name:   "global.who",
		Parent: "global",
		Kind:   overlay.KindCommand,
		Handler: func(_ context.Context, inv *overlay.Invocation) error {
			if inv.Output == nil {
				return nil
			}
			_, err := fmt.Fprintln(inv.Output, "No one else is connected.")
			return err
		},
	})
	// Data variable: extensions cannot shadow it.
	table.Insert(&overlay.HostEntry{
		Name:   "global.motd",
		Parent: "global",
		Kind:   overlay.KindVariable,
	})
}
