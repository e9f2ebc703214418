package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(Config{Bucket: "b"}, nil)
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = NewClient(Config{Endpoint: "localhost:9000"}, nil)
	assert.ErrorContains(t, err, "bucket is required")
}

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "endpoint with scheme",
			cfg:  Config{Endpoint: "http://minio:9000", Bucket: "images"},
			want: "http://minio:9000/images/properties/p-1/a.jpg",
		},
		{
			name: "public endpoint overrides",
			cfg:  Config{Endpoint: "minio:9000", PublicEndpoint: "https://cdn.example.com/", Bucket: "images"},
			want: "https://cdn.example.com/images/properties/p-1/a.jpg",
		},
		{
			name: "bare host gets scheme from ssl flag",
			cfg:  Config{Endpoint: "s3.example.com", Bucket: "images", UseSSL: true},
			want: "https://s3.example.com/images/properties/p-1/a.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.objectURL("/properties/p-1/a.jpg"))
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, "minio:9000", parseEndpoint("http://minio:9000"))
	assert.Equal(t, "minio:9000", parseEndpoint("minio:9000"))
}
