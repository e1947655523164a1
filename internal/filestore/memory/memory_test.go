package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetStat(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.PutObject(ctx, "b", "k", strings.NewReader("x"), 1, "text/plain")
	assert.True(t, errs.IsNotFound(err), "bucket must exist first")

	require.NoError(t, s.EnsureBucket(ctx, "b"))
	require.NoError(t, s.EnsureBucket(ctx, "b"))

	info, err := s.PutObject(ctx, "b", "snapshots/a.yaml", strings.NewReader("hello"), -1, "application/yaml")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.NotEmpty(t, info.ETag)

	obj, err := s.GetObject(ctx, "b", "snapshots/a.yaml")
	require.NoError(t, err)
	defer obj.Close()
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "application/yaml", obj.Info().ContentType)

	stat, err := s.StatObject(ctx, "b", "snapshots/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, info.ETag, stat.ETag)

	_, err = s.StatObject(ctx, "b", "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestStore_ListObjects(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.EnsureBucket(ctx, "b"))

	for _, k := range []string{"snapshots/2.yaml", "snapshots/1.yaml", "other/x", "top"} {
		_, err := s.PutObject(ctx, "b", k, strings.NewReader(k), -1, "")
		require.NoError(t, err)
	}

	keys := func(infos []filestore.ObjectInfo) []string {
		out := make([]string, len(infos))
		for i, o := range infos {
			out[i] = o.Key
		}
		return out
	}

	got, err := s.ListObjects(ctx, "b", filestore.ListOptions{Prefix: "snapshots/", Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/1.yaml", "snapshots/2.yaml"}, keys(got))

	got, err = s.ListObjects(ctx, "b", filestore.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"other/", "snapshots/", "top"}, keys(got))
	assert.True(t, got[0].IsDir)

	got, err = s.ListObjects(ctx, "b", filestore.ListOptions{Recursive: true, Limit: 2, StartAfter: "other/x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/1.yaml", "snapshots/2.yaml"}, keys(got))
}
