// Package minio stores dataset files and snapshots in MinIO or any other
// S3-compatible object store reachable with the MinIO client.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "datasets", "leaves/")
//	ds, err := vemos.New(store)
package minio
