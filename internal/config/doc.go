// Package config provides the selfscan controller settings.
//
// Configuration is assembled in three layers:
//
//  1. Built-in defaults (GetDefaultConfig), which reproduce the behaviour of
//     a stock deployment: namespace bd-selfscan-system, ConfigMap
//     bd-selfscan-applications, 5 minute watch connections, hourly sweeps
//     with 24 hour retention, a minute job monitor and a 10 minute reload.
//  2. An optional YAML file passed with --config. Missing files are not an
//     error; the defaults are used.
//  3. Environment variables NAMESPACE and DEBUG.
//
// Command line flags are applied on top of the result of Load.
//
// # Example
//
//	namespace: security-scans
//	applications:
//	  source: file
//	  filePath: applications.yaml
//	  watchFile: true
//	intervals:
//	  sweepInterval: 30m
//	scanner:
//	  image: registry.example.com/scanner:1.4
//	  commandTemplate: "/scripts/scan.sh {{ .Application | squote }} {{ .Trigger }}"
package config
