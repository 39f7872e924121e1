package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/profilewizard/auth"
	"github.com/kbukum/profilewizard/autosave"
	"github.com/kbukum/profilewizard/bootstrap"
	"github.com/kbukum/profilewizard/catalog"
	"github.com/kbukum/profilewizard/component"
	"github.com/kbukum/profilewizard/config"
	"github.com/kbukum/profilewizard/httpclient"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/observability"
	"github.com/kbukum/profilewizard/redis"
	"github.com/kbukum/profilewizard/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start or resume the wizard",
	Long: `Resumes the saved draft of the current user (or starts one from the
profile stored on the server) and reads wizard commands from stdin.
Type "help" for the command list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		noPrefill, _ := cmd.Flags().GetBool("no-prefill")
		return runWizard(cmd, cfg, !noPrefill)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("no-prefill", false, "Start new drafts empty instead of from the saved profile")
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

func runWizard(cmd *cobra.Command, cfg *config.AppConfig, prefill bool) error {
	ctx := cmd.Context()

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	tokens := tokenSource(cfg)
	api := httpclient.NewComponent(cfg.API,
		httpclient.WithTokenSource(tokens),
		httpclient.WithLogger(logger.Get("httpclient")),
	)
	var rc *redis.Component
	if cfg.Autosave.Backend == config.BackendRedis {
		rc = redis.NewComponent(cfg.Redis, logger.Get("redis"))
		if err := app.RegisterComponent(rc); err != nil {
			return err
		}
	}
	if err := app.RegisterComponent(api); err != nil {
		return err
	}

	var (
		sess *session.Session
		cat  *catalog.Client
	)
	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*config.AppConfig]) error {
		cat = catalog.New(api.Client(),
			catalog.WithLogger(logger.Get("catalog")),
			catalog.WithMeter(observability.Meter("catalog")),
		)
		preload := component.NewFunc("catalog", func(ctx context.Context) error {
			_, err := cat.ListTechnologies(ctx)
			return err
		}).WithStop(func(context.Context) error {
			cat.Invalidate()
			return nil
		})

		key, err := auth.SessionKey(ctx, tokens, a.Cfg.Autosave.KeyPrefix)
		if err != nil {
			return err
		}
		var client *redis.Client
		if rc != nil {
			client = rc.Client()
		}
		store, err := session.OpenStore(a.Cfg.Autosave, client)
		if err != nil {
			return err
		}

		saveOpts := append(session.AutosaveOptions(a.Cfg.Autosave),
			autosave.WithMeter[session.Draft](observability.Meter("autosave")),
			autosave.WithStatusListener[session.Draft](logStatus(logger.Get("autosave"))),
		)
		sess, err = session.New(key, store,
			session.WithLogger(logger.Get("session")),
			session.WithAutosave(saveOpts...),
		)
		if err != nil {
			return err
		}
		if err := a.RegisterComponent(preload); err != nil {
			return err
		}
		return a.RegisterComponent(sess)
	})

	if prefill {
		app.OnReady(func(ctx context.Context) error {
			if !sess.Draft().Empty() {
				return nil
			}
			items, err := loadProfileItems(ctx, cat)
			if err != nil {
				logger.Warn("profile prefill skipped", logger.Fields(logger.FieldError, err.Error()))
				return nil
			}
			seed := draftFromItems(items, time.Now())
			if seed.Empty() {
				return nil
			}
			sess.Update(func(d *session.Draft) {
				d.Skills, d.Experience, d.Education = seed.Skills, seed.Experience, seed.Education
			})
			return nil
		})
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		return newREPL(sess, cat, cmd.OutOrStdout()).Run(ctx, cmd.InOrStdin())
	})
}

// logStatus reports failed and recovered saves. It must not call back
// into the session.
func logStatus(log *logger.Logger) func(autosave.Status, error) {
	return func(s autosave.Status, err error) {
		switch {
		case err != nil:
			log.Warn("draft not saved", logger.Fields(logger.FieldStatus, s.String(), logger.FieldError, err.Error()))
		case s == autosave.StatusSaved:
			log.Debug("draft saved", logger.Fields(logger.FieldStatus, s.String()))
		}
	}
}
