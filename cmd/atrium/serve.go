// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/atriumworld/atrium/internal/access"
	"github.com/atriumworld/atrium/internal/admin"
	"github.com/atriumworld/atrium/internal/config"
	"github.com/atriumworld/atrium/internal/logging"
	"github.com/atriumworld/atrium/internal/menu"
	"github.com/atriumworld/atrium/internal/observability"
	"github.com/atriumworld/atrium/internal/reserve"
	"github.com/atriumworld/atrium/internal/store"
	storepg "github.com/atriumworld/atrium/internal/store/postgres"
	"github.com/atriumworld/atrium/internal/world"
	"github.com/atriumworld/atrium/internal/world/mapdef"
	"github.com/atriumworld/atrium/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the space engine",
		Long: `Start the space engine: build the context tree from the world
definition, restore role and relation snapshots from the database when one
is configured, and serve health and metrics endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	defaults := config.Default()
	cmd.Flags().String("map-path", "", "world definition file")
	cmd.Flags().String("menu-dir", "", "interactable menu script directory")
	cmd.Flags().String("database-url", "", "snapshot store DSN (empty = no persistence)")
	cmd.Flags().String("metrics-addr", defaults.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

// logNotifier is the default notification sink: until a client transport
// carries them, notifications land in the structured log.
type logNotifier struct{}

func (logNotifier) Notify(ctx context.Context, n admin.Notification) error {
	slog.InfoContext(ctx, "notification",
		"target_id", n.TargetID.String(),
		"template", n.TemplateKey,
		"args", strings.Join(n.Args, ","),
		"actionable", n.Actionable,
	)
	return nil
}

func runServe(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	if err := logging.SetDefault(logging.Options{
		Service: "atrium",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	}); err != nil {
		return err
	}

	slog.Info("starting atrium", "map_path", cfg.MapPath, "metrics_addr", cfg.MetricsAddr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Build the space from the world definition.
	data, err := os.ReadFile(cfg.MapPath)
	if err != nil {
		return oops.Code("MAP_READ_FAILED").With("path", cfg.MapPath).Wrap(err)
	}
	skeleton, err := mapdef.Parse(data)
	if err != nil {
		return err
	}
	tree := world.NewTree()
	worldCtx, err := world.BuildWorld(tree, skeleton)
	if err != nil {
		return err
	}
	space := world.NewSpace(tree, world.NewRegistry(), nil)
	slog.Info("world built", "world_id", worldCtx.ID.String())

	control := access.NewControl(admin.SpaceLocator{Space: space})
	relations := admin.NewRelations()

	// Restore snapshots when a database is configured, and arrange to save
	// them again on shutdown.
	var saveSnapshots func()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").Wrap(err)
		}
		defer pool.Close()

		roleRepo := storepg.NewRoleRepository(pool)
		relationRepo := storepg.NewRelationRepository(pool)

		roleRecords, err := roleRepo.LoadRoles(ctx)
		if err != nil {
			return err
		}
		if err := store.ApplyRoles(control, roleRecords); err != nil {
			return err
		}
		relationRecords, err := relationRepo.LoadRelations(ctx)
		if err != nil {
			return err
		}
		store.ApplyRelations(relations, relationRecords)
		slog.Info("snapshots restored",
			"roles", len(roleRecords),
			"relations", len(relationRecords),
		)

		saveSnapshots = func() {
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer saveCancel()
			if err := roleRepo.SaveRoles(saveCtx, store.RolesFromControl(control)); err != nil {
				errutil.LogError(slog.Default(), "role snapshot save failed", err)
			}
			if err := relationRepo.SaveRelations(saveCtx, store.RelationsToRecords(relations)); err != nil {
				errutil.LogError(slog.Default(), "relation snapshot save failed", err)
			}
		}
	}

	dispatcher := admin.NewDispatcher(logNotifier{})
	defer dispatcher.Close()

	engine := admin.NewEngine(admin.EngineConfig{
		Space:     space,
		Control:   control,
		Relations: relations,
		Notifier:  dispatcher,
	})

	scheduler := reserve.NewScheduler(engine, nil)
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	var menus *menu.Host
	if cfg.MenuDir != "" {
		menus = menu.NewHost()
		defer menus.Close()
		if err := menus.LoadDir(ctx, cfg.MenuDir); err != nil {
			return err
		}
		slog.Info("menus loaded", "count", len(menus.Menus()))
	}

	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr,
			func() bool { return true },
			admin.RegisterMetrics,
			reserve.RegisterMetrics,
		)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Atrium started")
	slog.Info("atrium ready", "world_id", worldCtx.ID.String())

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")
	cancel()
	<-schedulerDone

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	if saveSnapshots != nil {
		saveSnapshots()
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the run context when a background server
// reports an error. A closed channel means a graceful stop.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
