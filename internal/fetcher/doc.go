// Package fetcher downloads monthly CSV files into the local data directory.
//
// Files are named by the basename of the URL path and overwrite any file of
// the same name. There is no retry and no content validation; a non-2xx
// response is returned as an error and stops the caller.
package fetcher
