package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imovlocal/backend/internal/config"
	"github.com/imovlocal/backend/internal/pkg/errors"
)

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	store, err := NewLocalStore(dir, "/uploads/receipts/")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "pay-1_abcd1234.png", "image/png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/receipts/pay-1_abcd1234.png", url)

	got, err := os.ReadFile(filepath.Join(dir, "pay-1_abcd1234.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestLocalStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/receipts")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Save(ctx, "pay-2_x.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "pay-2_x.pdf"))
	_, err = os.Stat(filepath.Join(dir, "pay-2_x.pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "pay-2_x.pdf"), "missing key is not an error")
	assert.Error(t, store.Delete(ctx, "../escape.png"))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads/receipts")
	require.NoError(t, err)

	tests := []string{"", "../escape.png", "nested/file.png", `..\win.png`, ".."}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := store.Save(context.Background(), key, "image/png", []byte("x"))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeStorage))
		})
	}
}

type fakeS3 struct {
	inputs  []*s3.PutObjectInput
	deleted []string
	err     error
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Save(t *testing.T) {
	client := &fakeS3{}
	store := newS3Store(client, "receipts", "/prod/", "https://receipts.s3.sa-east-1.amazonaws.com")

	url, err := store.Save(context.Background(), "pay-1_x.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "https://receipts.s3.sa-east-1.amazonaws.com/prod/pay-1_x.pdf", url)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "receipts", *in.Bucket)
	assert.Equal(t, "prod/pay-1_x.pdf", *in.Key)
	assert.Equal(t, "application/pdf", *in.ContentType)
	assert.EqualValues(t, 8, *in.ContentLength)
}

func TestS3Store_Delete(t *testing.T) {
	client := &fakeS3{}
	store := newS3Store(client, "receipts", "prod", "https://example.com")

	require.NoError(t, store.Delete(context.Background(), "pay-1_x.pdf"))
	assert.Equal(t, []string{"prod/pay-1_x.pdf"}, client.deleted)

	failing := newS3Store(&fakeS3{err: assert.AnError}, "receipts", "", "https://example.com")
	err := failing.Delete(context.Background(), "pay-1_x.pdf")
	assert.True(t, errors.HasCode(err, errors.ErrCodeStorage))
}

func TestS3Store_SaveError(t *testing.T) {
	store := newS3Store(&fakeS3{err: assert.AnError}, "receipts", "", "https://example.com")

	_, err := store.Save(context.Background(), "k.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStorage))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "k", objectName("", "k"))
	assert.Equal(t, "a/b/k", objectName("/a/b/", "k"))
}
