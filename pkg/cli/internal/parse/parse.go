// Package parse provides string parsing utilities for CLI commands.
package parse

import (
	"fmt"
	"net"
	"strconv"
)

// HostPort splits a "host:port" address and parses the port.
// An empty host means localhost.
func HostPort(addr string) (host string, port int, err error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err = strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q in address %q", portStr, addr)
	}
	if host == "" {
		host = "localhost"
	}
	return host, port, nil
}
