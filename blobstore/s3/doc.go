// Package s3 stores dataset files and snapshots in Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "datasets/leaves")
//	ds, err := vemos.New(store)
//
// Reads are issued as ranged GETs, streaming writes go through the
// multipart upload manager. DDBCommitStore adds DynamoDB conditional writes
// so that concurrent savers cannot overwrite each other's CURRENT pointer.
package s3
