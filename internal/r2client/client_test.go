package r2client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	full := Config{
		Endpoint:    "https://acct.r2.cloudflarestorage.com",
		AccessKeyID: "id",
		SecretKey:   "secret",
		BucketName:  "bucket",
	}
	assert.NoError(t, full.Validate())

	err := Config{Endpoint: full.Endpoint}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access key id, secret key, bucket name")
}

func TestNew_RejectsIncompleteConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{BucketName: "b"})
	assert.ErrorContains(t, err, "missing endpoint")
}

func TestNew_ValidConfig(t *testing.T) {
	t.Parallel()

	c, err := New(context.Background(), Config{
		Endpoint:    "https://acct.r2.cloudflarestorage.com",
		AccessKeyID: "id",
		SecretKey:   "secret",
		BucketName:  "planner",
	})
	require.NoError(t, err)
	assert.Equal(t, "planner", c.Bucket())
}

func TestTempKey(t *testing.T) {
	t.Parallel()

	a := TempKey("backups/planner.db.zst")
	b := TempKey("backups/planner.db.zst")
	assert.True(t, strings.HasPrefix(a, "backups/planner.db.zst.tmp-"))
	assert.NotEqual(t, a, b)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"not found", &types.NotFound{}, true},
		{"api error code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"wrapped", fmt.Errorf("get: %w", &smithy.GenericAPIError{Code: "NotFound"}), true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func TestTrimETag(t *testing.T) {
	t.Parallel()

	quoted := `"abc123"`
	assert.Equal(t, "abc123", trimETag(&quoted))
	assert.Equal(t, "", trimETag(nil))
}
