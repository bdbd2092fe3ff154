// Package config holds the settings for a scrape-and-combine run.
//
// Defaults reproduce the published NHS England site layout and the NCL trust
// list. A YAML file, a .env file and AEDATA_* environment variables can
// override them, in that order; command-line flags are applied last by the
// cli package.
package config
