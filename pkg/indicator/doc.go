// Package indicator holds the mutable state of terminal progress indicators.
//
// A State is created with New and driven by application goroutines:
//
//	bar := indicator.New(indicator.KindBar,
//		indicator.WithBarWidth(40),
//		indicator.WithPrefix("Downloading "),
//		indicator.WithShowElapsedTime(true),
//	)
//	for chunk := range chunks {
//		bar.Increment(float64(len(chunk)))
//	}
//	bar.MarkCompleted()
//
// Progress is clamped into [0, max]: negative values store 0 and values
// above max store max. Clamping is reported to the logger at debug level and
// never returned to the caller.
//
// Status moves forward only, from Running to Completed or Stopped. Once an
// indicator is terminal its progress and max are frozen.
//
// State never writes to the terminal. A render engine (package render)
// takes Snapshots on its own schedule and draws them.
package indicator
