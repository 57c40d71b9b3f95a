package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/champlint/internal/analysis"
	"github.com/codewithboateng/champlint/internal/api"
	"github.com/codewithboateng/champlint/internal/security"
	"github.com/codewithboateng/champlint/internal/storage"
)

func serveCmd(g *globals) *cobra.Command {
	var addr, dbPath string
	var persist bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (runs, findings, rules, waivers, lint, metrics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			db, err := openDB(orDefault(dbPath, e.cfg.Database.DSN))
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			opts := analysis.OptionsFromConfig(e.cfg)
			srv := &api.Server{
				DB:              db,
				UserStore:       db,
				Logger:          e.logger,
				AllowedOrigins:  e.cfg.Server.AllowedOrigins,
				SessionDuration: time.Duration(e.cfg.Server.SessionHours) * time.Hour,
				Analysis:        opts,
				PersistLint:     persist,
			}
			hs := &http.Server{
				Addr:              orDefault(addr, e.cfg.Server.Addr),
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				e.logger.Info("api listening", "addr", hs.Addr)
				errCh <- hs.ListenAndServe()
			}()
			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-cmd.Context().Done():
			}
			e.logger.Info("api shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().BoolVar(&persist, "persist-lint", false, "Save runs submitted to POST /api/v1/lint")
	return cmd
}

func userCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	var username, password, role, dbPath string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				return usageErr("user add: --username and --password are required")
			}
			if role != storage.RoleAdmin && role != storage.RoleViewer {
				return usageErr("user add: --role must be %s or %s", storage.RoleAdmin, storage.RoleViewer)
			}
			hash, err := security.HashPassword(password)
			if err != nil {
				return usageErr("user add: %w", err)
			}
			db, err := openDB(orDefault(dbPath, e.cfg.Database.DSN))
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()
			id, err := db.CreateUser(username, hash, role)
			if err != nil {
				return err
			}
			_ = db.LogAudit("cli", "user:create", username, map[string]any{"role": role})
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created (id %d, role %s)\n", username, id, role)
			return nil
		},
	}
	add.Flags().StringVar(&username, "username", "", "Username")
	add.Flags().StringVar(&password, "password", "", "Password (min 8 characters)")
	add.Flags().StringVar(&role, "role", storage.RoleViewer, "Role (admin, viewer)")
	add.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.AddCommand(add)
	return cmd
}
