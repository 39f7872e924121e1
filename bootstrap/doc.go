// Package bootstrap runs a binary built from components. RunTask starts the
// registered components, runs the configure callbacks, starts whatever they
// registered, prints a summary and runs the task. Once the task returns,
// everything stops in reverse order.
//
//	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(os.Stderr))
//	app.RegisterComponent(redisComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*config.AppConfig]) error {
//	    return a.RegisterComponent(sess)
//	})
//	err = app.RunTask(ctx, repl.Run)
package bootstrap
