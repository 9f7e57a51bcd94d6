// Package render formats discovered devices for the terminal and for
// other programs: a bordered table with IP-conflict warnings, CSV for
// spreadsheets, JSON for pipes, and plain text blocks.
package render
