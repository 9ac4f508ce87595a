// Package resource governs the resources used while loading score files
// in parallel.
//
// A Controller limits three things:
//
//   - Loads: the number of files parsed at the same time.
//   - Memory: the bytes of raw file content held at the same time.
//   - IO: the read throughput from the blob store, as a token bucket.
//
// Typical use around one file:
//
//	if err := rc.AcquireLoad(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseLoad()
//
//	if err := rc.AcquireMemory(ctx, size); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(size)
//
//	r := resource.NewRateLimitedReader(ctx, blobReader, rc)
//
// All methods are safe for concurrent use and a nil *Controller imposes no
// limits.
package resource
