// Package cli implements the ae-data command line.
//
// The root command loads configuration (file, .env, environment, flags), runs
// the pipeline and prints a summary as a text table or JSON. Progress lines
// go to stdout; structured logs go to stderr.
package cli
