// Package syncer drives one router: it connects on a slow startup
// schedule until the router answers, then polls on the refresh schedule,
// reconciles every snapshot against the previous one and hands the
// resulting Update to registered sinks.
package syncer
