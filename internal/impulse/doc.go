// Package impulse provides a small scheduler of named, independently
// switchable periodic tasks.
//
// A Generator is used in two places: the sync engine's one-shot startup
// sequence (a "start" task retried until the router answers) and the
// router poll (a "connect" task firing every refresh interval). Both are
// the same primitive:
//
//	gen := impulse.New(logger)
//	gen.Handle("connect", func(ctx context.Context) { refresh() })
//	gen.OnState(func(active bool) { log(active) })
//	_ = gen.SetState(true, []impulse.Task{{Name: "connect", Interval: 5 * time.Second}}, false)
//	...
//	gen.Close()
package impulse
