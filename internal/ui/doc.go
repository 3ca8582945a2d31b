// Package ui renders wrtsync output in the terminal.
//
// One-shot commands print lipgloss boxes: RenderSnapshot for router
// state, RenderPlan for reconciliation changes, RenderRouters for scan
// results and Result for success or failure. Failure boxes take their
// troubleshooting bullets from openwrt.Hint.
//
// "wrtsync watch" runs WatchModel, a Bubble Tea program fed by a
// ChannelSink attached to a sync engine.
//
// # Usage Pattern
//
//	fmt.Println(ui.RenderSnapshot("office", snap, ui.GetTerminalWidth()))
//
//	if err != nil {
//	    fmt.Println(ui.NewFailureResult("Could not disable guest", err))
//	}
package ui
