// Package storage persists the download manifest for the local CSV cache.
//
// The manifest is a JSON file (manifest.json) in the data directory that
// records every CSV the fetcher has written: the source URL, file name, size,
// SHA-256 fingerprint and download time. Combining from the manifest instead
// of a directory listing keeps stray files out of the output.
package storage
