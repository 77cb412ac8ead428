package kv

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	err     error
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Get(t *testing.T) {
	tests := []struct {
		prefix  string
		objects map[string][]byte
		err     error
		want    string
		wantErr error
	}{
		{
			objects: map[string][]byte{"bucket/data.json": []byte(`{"data":"hello"}`)},
			want:    `{"data":"hello"}`,
		},
		{
			prefix:  "answers/prod",
			objects: map[string][]byte{"bucket/answers/prod/data.json": []byte(`{"data":"prefixed"}`)},
			want:    `{"data":"prefixed"}`,
		},
		{
			objects: map[string][]byte{},
			wantErr: ErrNotFound,
		},
		{
			err: errors.New("access denied"),
		},
	}
	for i, tt := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			store := NewS3Store(&fakeS3{objects: tt.objects, err: tt.err}, "bucket", tt.prefix)

			got, err := store.Get(context.Background(), "data.json")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.err != nil {
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestS3Store_Set(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := NewS3Store(fake, "bucket", "answers")

	require.NoError(t, store.Set(context.Background(), "data.json", []byte(`{"data":"a"}`)))
	require.NoError(t, store.Set(context.Background(), "data.json", []byte(`{"data":"b"}`)))

	assert.Equal(t, map[string][]byte{"bucket/answers/data.json": []byte(`{"data":"b"}`)}, fake.objects)
}
