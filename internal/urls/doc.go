// Package urls provides centralized constants for the documentation URLs
// printed in troubleshooting hints.
//
// Usage:
//
//	import "github.com/muurk/wrtsync/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.Rpcd)
package urls
