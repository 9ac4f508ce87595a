// Package blobstore abstracts where score files and dataset snapshots live.
//
// A BlobStore serves raw score and description files to the loader and
// receives snapshots written by Dataset.Save. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral datasets
//   - LocalStore: a directory on the local file system
//   - s3.Store: Amazon S3, optionally with DynamoDB commits (s3.DDBCommitStore)
//   - minio.Store: MinIO and other S3-compatible object stores
//
// Blob names use forward slashes regardless of the backend.
package blobstore
