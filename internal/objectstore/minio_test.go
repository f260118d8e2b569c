package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "endpoint",
			cfg:  Config{Endpoint: "localhost:9000", Bucket: "outfits"},
			want: "http://localhost:9000/outfits/scraped/1-robe.jpg",
		},
		{
			name: "tls endpoint",
			cfg:  Config{Endpoint: "s3.example.com", Bucket: "outfits", UseSSL: true},
			want: "https://s3.example.com/outfits/scraped/1-robe.jpg",
		},
		{
			name: "cdn",
			cfg:  Config{Endpoint: "localhost:9000", Bucket: "outfits", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/scraped/1-robe.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.PublicURL("scraped/1-robe.jpg"))
		})
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestPut(t *testing.T) {
	type upload struct {
		method, path, contentType string
		body                      []byte
	}
	uploads := make(chan upload, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		uploads <- upload{r.Method, r.URL.Path, r.Header.Get("Content-Type"), body}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	s, err := New(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "outfits",
	})
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "scraped/1-robe.png", []byte("png-bytes"), "image/png"))

	got := <-uploads
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/outfits/scraped/1-robe.png", got.path)
	assert.Equal(t, "image/png", got.contentType)
	// plain http uploads are sent with chunked signatures around the payload
	assert.Contains(t, string(got.body), "png-bytes")
}
