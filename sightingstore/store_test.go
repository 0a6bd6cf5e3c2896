package sightingstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

const csv = "IDX,ID,YEAR,MONTH\n0,a,2005,1\n\n0,b,2006,7\n"

type fakeS3 struct {
	s3iface.S3API
	body  string
	err   error
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, input *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

type countingStore struct {
	calls int32
	data  string
	fail  atomic.Bool
}

func (c *countingStore) Fetch(_ context.Context) ([]byte, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.fail.Load() {
		return nil, fmt.Errorf("unavailable")
	}
	return []byte(c.data), nil
}

// blockingStore holds every fetch until release is closed, failing early if
// the fetch context ends first.
type blockingStore struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) Fetch(ctx context.Context) ([]byte, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return []byte(csv), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestS3Store(t *testing.T) {
	t.Run("reads the whole object", func(t *testing.T) {
		api := &fakeS3{body: csv}
		store := &S3Store{S3: api, Bucket: "data"}
		data, err := store.Fetch(context.Background())
		assert.Nil(t, err)
		assert.Equal(t, csv, string(data))
		assert.Equal(t, "data", aws.StringValue(api.input.Bucket))
		assert.Equal(t, DefaultKey, aws.StringValue(api.input.Key))
	})

	t.Run("get failure", func(t *testing.T) {
		store := &S3Store{S3: &fakeS3{err: fmt.Errorf("NoSuchKey")}, Bucket: "data", Key: "x.csv"}
		_, err := store.Fetch(context.Background())
		assert.NotNil(t, err)
		assert.Contains(t, err.Error(), "s3://data/x.csv")
	})
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "animals.csv")
	assert.Nil(t, os.WriteFile(path, []byte(csv), 0644))

	loader := &Loader{Store: &FileStore{Path: path}}
	records, err := loader.Records(context.Background())
	assert.Nil(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "b", records[1].ID)

	_, err = (&FileStore{Path: filepath.Join(t.TempDir(), "missing.csv")}).Fetch(context.Background())
	assert.NotNil(t, err)
}

func TestCache(t *testing.T) {
	t.Run("serves one snapshot until it expires", func(t *testing.T) {
		store := &countingStore{data: csv}
		now := time.Unix(1000, 0)
		cache := NewCache(store, time.Minute, zerolog.Nop())
		cache.now = func() time.Time { return now }

		for i := 0; i < 3; i++ {
			records, err := cache.Records(context.Background())
			assert.Nil(t, err)
			assert.Len(t, records, 2)
		}
		assert.EqualValues(t, 1, atomic.LoadInt32(&store.calls))

		now = now.Add(2 * time.Minute)
		_, err := cache.Records(context.Background())
		assert.Nil(t, err)
		assert.EqualValues(t, 2, atomic.LoadInt32(&store.calls))
	})

	t.Run("stale snapshot on refresh failure", func(t *testing.T) {
		store := &countingStore{data: csv}
		now := time.Unix(1000, 0)
		cache := NewCache(store, time.Minute, zerolog.Nop())
		cache.now = func() time.Time { return now }

		_, err := cache.Records(context.Background())
		assert.Nil(t, err)

		store.fail.Store(true)
		now = now.Add(time.Hour)
		records, err := cache.Records(context.Background())
		assert.Nil(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("no snapshot surfaces the failure", func(t *testing.T) {
		store := &countingStore{data: csv}
		store.fail.Store(true)
		cache := NewCache(store, 0, zerolog.Nop())
		_, err := cache.Records(context.Background())
		assert.NotNil(t, err)
	})

	t.Run("zero max age loads once", func(t *testing.T) {
		store := &countingStore{data: csv}
		cache := NewCache(store, 0, zerolog.Nop())

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				records, err := cache.Records(context.Background())
				assert.Nil(t, err)
				assert.Len(t, records, 2)
			}()
		}
		wg.Wait()

		_, err := cache.Records(context.Background())
		assert.Nil(t, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&store.calls))
	})

	t.Run("cancelled caller does not fail others", func(t *testing.T) {
		store := &blockingStore{started: make(chan struct{}), release: make(chan struct{})}
		cache := NewCache(store, time.Minute, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		first := make(chan error, 1)
		go func() {
			_, err := cache.Records(ctx)
			first <- err
		}()
		<-store.started

		type result struct {
			records int
			err     error
		}
		second := make(chan result, 1)
		go func() {
			records, err := cache.Records(context.Background())
			second <- result{records: len(records), err: err}
		}()

		cancel()
		assert.Equal(t, context.Canceled, <-first)

		close(store.release)
		got := <-second
		assert.Nil(t, got.err)
		assert.Equal(t, 2, got.records)
	})
}
