// Seedsweep evaluates qBittorrent torrents against a retention policy
// and removes the ones that are old enough but seeding too slowly to
// ever reach their target ratio.
//
// Usage:
//
//	# Preview what would be removed (dry-run is the default)
//	seedsweep
//
//	# Actually remove torrents and their data
//	seedsweep --execute
//
//	# Custom thresholds and endpoint
//	seedsweep --age 180 --ratio 2.0 --endpoint http://nas:8080
//
//	# Run on a schedule with health endpoints
//	seedsweep --daemon --schedule "@every 6h"
//
//	# Show version information
//	seedsweep version
package main

func main() {
	Execute()
}
