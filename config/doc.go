// Package config loads the runtime configuration for the ingestion CLI.
//
// Precedence, lowest to highest: package defaults, the YAML file given on
// the command line, environment variables. Every section delegates its
// validation to the owning package's Validate method, so the config file
// cannot describe a state the components would reject at construction.
package config
