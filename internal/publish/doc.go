// Package publish uploads finished dubs to S3-compatible object storage.
package publish
