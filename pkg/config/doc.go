// Package config loads echod server configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// ECHOD_* environment variables, then command-line flags (applied by the
// CLI). Config.Sources records which layer supplied each value.
//
// Example file:
//
//	address: 0.0.0.0:8080
//	read_timeout: 5s
//	poll_interval: 100ms
//	buffer_size: 512
//	max_connections: 0
//	metrics_address: 127.0.0.1:9090
//	log:
//	  level: info
//	  format: json
package config
