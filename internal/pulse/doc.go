// Package pulse is the application layer between the HTTP API, the live
// dashboard and the analytics core.
package pulse
