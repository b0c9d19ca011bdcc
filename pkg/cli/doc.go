// Package cli implements the echod command line: serve runs the server,
// send talks to one, and version prints build information.
package cli
