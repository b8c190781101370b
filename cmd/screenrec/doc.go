// Package main is the screenrec command: it serves the HTTP API, applies
// database migrations and issues session tokens for local sign-in.
package main
