// Package bootstrap runs a flowkit process. NewApp applies defaults to a
// loaded config and validates it; Run and RunTask start the registered
// components, run the lifecycle hooks and stop the components in reverse
// order on the way out.
//
//	app, err := bootstrap.NewApp(&cfg)
//	stack := bootstrap.NewStack(&cfg, app.Logger, nil)
//	app.RegisterComponent(stack.Preview)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := stack.Engine.Run(ctx, graph, engine.RunOptions{})
//	    return err
//	})
//
// Run blocks until SIGINT, SIGTERM or context cancellation; RunTask cancels
// the task on the same signals.
package bootstrap
