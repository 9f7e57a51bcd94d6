// Package server implements the easyip web dashboard.
//
// The dashboard wraps the device tracker in a small JSON API, pushes scan
// progress to browsers over a websocket, and can run discovery on a timer.
//
// # Endpoints
//
//	GET  /                   status page
//	GET  /api/devices        tracked devices (?sort=last_seen|first_seen|ip|mac|name)
//	GET  /api/devices/{mac}  one device with its IP history
//	GET  /api/stats          counts by status plus monitor state
//	GET  /api/conflicts      IPs claimed by more than one device in the last scan
//	GET  /api/export         full tracker database as JSON
//	POST /api/scan           start a scan (202, or 409 while one runs)
//	POST /api/auto-scan      {"enabled": bool}
//	GET  /ws                 scan_started / scan_complete messages
//
// # Scanning
//
// A Monitor owns the scan slot. Only one scan runs at a time whether it was
// requested over HTTP or by the auto-scan ticker. Each finished scan is
// folded into the tracker, and the resulting events go to the configured
// notify.Publisher.
//
// # Discovery of other dashboards
//
// With Config.Advertise set the dashboard registers itself over mDNS as an
// _http._tcp service tagged app=easyip. BrowseDashboards finds them.
package server
