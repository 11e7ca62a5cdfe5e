// Package config defines and loads all application configuration from
// environment variables and an optional YAML file.
package config
