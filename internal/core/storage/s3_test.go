package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://captures/phone/g.jpg")
	require.NoError(t, err)
	assert.Equal(t, "captures", bucket)
	assert.Equal(t, "phone/g.jpg", key)

	for _, bad := range []string{"s3://captures", "s3:///g.jpg", "/sdcard/g.jpg", "http://x/y"} {
		_, _, err := ParseS3URL(bad)
		assert.Error(t, err, bad)
	}

	assert.True(t, IsS3URL("s3://a/b"))
	assert.False(t, IsS3URL("/sdcard/NonSync/gctemp/g.jpg"))
}

func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/captures/phone/g.jpg" {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = io.WriteString(w, "jpeg-bytes")
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(endpoint string) S3Options {
	return S3Options{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	}
}

func TestS3Source_Open(t *testing.T) {
	srv := fakeS3(t)
	src, err := NewS3Source(context.Background(), "s3://captures/phone/g.jpg", testOptions(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "s3://captures/phone/g.jpg", src.Location())

	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))
}

func TestS3Source_MissingObject(t *testing.T) {
	srv := fakeS3(t)
	src, err := NewS3Source(context.Background(), "s3://captures/phone/missing.jpg", testOptions(srv.URL))
	require.NoError(t, err)

	_, err = src.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.jpg")
}
