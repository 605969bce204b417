// Package factory provides a small generic registry used to build
// pluggable modules, such as metric sinks, from configuration.
package factory
