package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeChoice(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"s3", "s3", true},
		{" MinIO ", "minio", true},
		{"gcs", "gcs", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeChoice(tt.in, "minio", "s3")
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
