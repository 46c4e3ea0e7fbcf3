// Package server wraps http.Server with production timeouts and graceful
// shutdown driven by context cancellation.
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// Run returns nil after a clean shutdown triggered by ctx, and the listen
// error otherwise. In-flight requests get ShutdownTimeout to finish.
package server
