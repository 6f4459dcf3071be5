// Package cli defines the contact-relay command tree: serve runs the HTTP
// server, invoke answers a single event, version prints build metadata.
package cli
