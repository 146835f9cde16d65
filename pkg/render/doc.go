// Package render coordinates many indicators on one terminal.
//
// A Registry keeps the indicators in row order. An Engine owns a Registry
// and a surface, and redraws every row from a single background worker on a
// fixed interval:
//
//	eng := render.New(os.Stdout)
//	err := eng.Run(ctx, func(ctx context.Context) error {
//		bar := indicator.New(indicator.KindBar, indicator.WithPrefix("download "))
//		eng.Register(bar)
//		go download(bar)
//		return eng.Wait(ctx)
//	})
//
// Producers mutate their indicator.State from any goroutine. The worker
// snapshots the registry, formats one line per row and writes the frame in
// one call. Ticks that arrive while a frame is still pending are dropped and
// counted in Stats.
package render
