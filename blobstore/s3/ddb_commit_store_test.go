package s3

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vemos/blobstore"
)

// fakeDDB keeps commit items in memory and honours the conditional write.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func attrS(item map[string]types.AttributeValue, name string) string {
	return item[name].(*types.AttributeValueMemberS).Value
}

func attrN(item map[string]types.AttributeValue, name string) uint64 {
	v, _ := strconv.ParseUint(item[name].(*types.AttributeValueMemberN).Value, 10, 64)
	return v
}

func (f *fakeDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fmt.Sprintf("%s#%d", attrS(in.Item, "dataset"), attrN(in.Item, "version"))
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dataset := in.ExpressionAttributeValues[":ds"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range f.items {
		if attrS(item, "dataset") == dataset {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b map[string]types.AttributeValue) int {
		return int(attrN(b, "version")) - int(attrN(a, "version"))
	})
	if in.Limit != nil && int(*in.Limit) < len(items) {
		items = items[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func newCommitStore(ddb *fakeDDB, dataset string) *DDBCommitStore {
	return NewDDBCommitStore(NewStore(&MockS3Client{}, "bucket", "leaves"), ddb, "vemos-commits", dataset)
}

func readCurrent(t *testing.T, s blobstore.BlobStore) string {
	t.Helper()
	data, err := blobstore.ReadAll(context.Background(), s, CurrentName)
	require.NoError(t, err)
	return string(data)
}

func TestDDBCommitStore_Commits(t *testing.T) {
	ctx := context.Background()
	store := newCommitStore(newFakeDDB(), "s3://bucket/leaves")

	_, err := store.Open(ctx, CurrentName)
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Put(ctx, CurrentName, []byte(fmt.Sprintf("MANIFEST-%06d.json", i))))
	}
	assert.Equal(t, "MANIFEST-000003.json", readCurrent(t, store))

	version, manifest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), version)
	assert.Equal(t, "MANIFEST-000003.json", manifest)
}

func TestDDBCommitStore_Conflict(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	store := newCommitStore(ddb, "s3://bucket/leaves")
	require.NoError(t, store.Put(ctx, CurrentName, []byte("MANIFEST-000001.json")))

	// Another writer already took version 2.
	require.NoError(t, store.commit(ctx, 2, "MANIFEST-000002.json"))
	err := store.commit(ctx, 2, "MANIFEST-000003.json")
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, "MANIFEST-000002.json", readCurrent(t, store))
}

func TestDDBCommitStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := newCommitStore(newFakeDDB(), "s3://bucket/leaves")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Put(ctx, CurrentName, []byte(fmt.Sprintf("MANIFEST-%06d.json", i)))
			if err != nil {
				assert.ErrorIs(t, err, ErrConcurrentModification)
				return
			}
			mu.Lock()
			successes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	version, _, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(successes), version)
}

func TestDDBCommitStore_IsolatedDatasets(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	a := newCommitStore(ddb, "s3://bucket/a")
	b := newCommitStore(ddb, "s3://bucket/b")

	require.NoError(t, a.Put(ctx, CurrentName, []byte("MANIFEST-A")))
	require.NoError(t, b.Put(ctx, CurrentName, []byte("MANIFEST-B")))

	assert.Equal(t, "MANIFEST-A", readCurrent(t, a))
	assert.Equal(t, "MANIFEST-B", readCurrent(t, b))

	blob, err := a.Open(ctx, CurrentName)
	require.NoError(t, err)
	buf := make([]byte, 20)
	n, err := blob.ReadAt(ctx, buf, 0)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "MANIFEST-A", string(buf[:n]))
}
