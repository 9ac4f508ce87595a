// Package faultstore wraps a blobstore.BlobStore to inject I/O errors.
//
// Rules match blob names by substring; the last matching rule added wins.
//
//	fs := faultstore.New(blobstore.NewMemoryStore())
//	fs.AddRule("metrics/", faultstore.Fault{FailAfterBytes: 64})
//
// The store is meant for tests of partial writes and failed reads.
package faultstore
