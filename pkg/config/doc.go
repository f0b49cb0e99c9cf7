// Package config loads NovaFlow console configuration.
//
// Configuration is environment-first: every setting has a NOVAFLOW_* variable.
// An optional YAML file can provide a base layer; environment variables always
// win over file values. A subset of settings (log level) can be hot reloaded
// when the file changes on disk.
package config
