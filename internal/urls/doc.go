// Package urls holds the project links printed by the CLI and the terminal
// UI, so they change in one place.
//
// Usage:
//
//	import "github.com/muurk/easyip/internal/urls"
//
//	fmt.Printf("Report unsupported models at %s\n", urls.Issues)
package urls
