package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univerify/univerify/internal/storage"
)

// fakeS3 keeps objects in memory. Only single-part uploads are supported;
// the embedded interface panics on multipart calls.
type fakeS3 struct {
	manager.UploadAPIClient

	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
	pageSize    int
	listCalls   int
	getErr      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), contentType: make(map[string]string)}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(params.Key)] = data
	f.contentType[aws.ToString(params.Key)] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) && key > aws.ToString(params.ContinuationToken) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if f.pageSize > 0 && len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func TestPutGetDelete(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, fake, "receipts", "")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "uploads/0xabc.json", []byte(`{"ok":true}`)))
	assert.Equal(t, "application/json", fake.contentType["uploads/0xabc.json"])

	data, err := s.Get(ctx, "uploads/0xabc.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	require.NoError(t, s.Delete(ctx, "uploads/0xabc.json"))
	_, err = s.Get(ctx, "uploads/0xabc.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGet_BackendError(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("access denied")
	s := newS3Storage(fake, fake, "receipts", "")

	_, err := s.Get(context.Background(), "uploads/a.json")
	assert.ErrorIs(t, err, fake.getErr)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestPrefix(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, fake, "receipts", "univerify")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "uploads/a.json", []byte("{}")))
	_, ok := fake.objects["univerify/uploads/a.json"]
	assert.True(t, ok, "object should be stored under the prefix")

	keys, err := s.List(ctx, storage.UploadPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/a.json"}, keys)
}

func TestList_Paginates(t *testing.T) {
	fake := newFakeS3()
	fake.pageSize = 2
	s := newS3Storage(fake, fake, "receipts", "")
	ctx := context.Background()

	for _, key := range []string{"uploads/a.json", "uploads/b.json", "uploads/c.json", "verifications/x-1.json"} {
		require.NoError(t, s.Put(ctx, key, []byte("{}")))
	}

	keys, err := s.List(ctx, storage.UploadPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/a.json", "uploads/b.json", "uploads/c.json"}, keys)
	assert.Equal(t, 2, fake.listCalls)
}

func TestArchiveOnS3(t *testing.T) {
	fake := newFakeS3()
	archive := storage.NewArchive(newS3Storage(fake, fake, "receipts", ""))

	keys, err := archive.ListVerifications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

// TestValidateKey tests the key validation function
func TestValidateKey(t *testing.T) {
	s := &S3Storage{bucket: "test-bucket"}

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "simple filename", key: "test.json", wantErr: false},
		{name: "path with slash", key: "uploads/0xabc.json", wantErr: false},
		{name: "uuid filename", key: "550e8400-e29b-41d4-a716-446655440000", wantErr: false},

		{name: "path traversal ..", key: "../secret.txt", wantErr: true},
		{name: "path traversal in middle", key: "folder/../secret.txt", wantErr: true},

		{name: "null byte", key: "file\x00.txt", wantErr: true},
		{name: "url encoded", key: "file%2F.txt", wantErr: true},
		{name: "empty key", key: "", wantErr: true},

		{name: "just dot", key: ".", wantErr: true},
		{name: "just slash", key: "/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.validateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestOperationsRejectInvalidKeys(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, fake, "receipts", "")
	ctx := context.Background()

	var storageErr *storage.StorageError
	require.ErrorAs(t, s.Put(ctx, "../x", []byte("{}")), &storageErr)
	assert.Equal(t, "Put", storageErr.Op)

	_, err := s.Get(ctx, "a%2Fb")
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "Get", storageErr.Op)

	require.ErrorAs(t, s.Delete(ctx, ""), &storageErr)
	assert.Empty(t, fake.objects)
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{})
	assert.Error(t, err)
}
