//go:build integration

package etcdtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
	v3 "go.etcd.io/etcd/client/v3"
)

func TestStartEtcd(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)

	pool, err := dockertest.NewPool("")
	require.NoError(err)

	client, teardown, err := StartEtcd(pool)
	require.NoError(err)
	defer teardown()

	get, err := client.Get(ctx, "/deploy/", v3.WithPrefix())
	require.NoError(err)
	require.Empty(get.Kvs)

	for i := 0; i < 5; i++ {
		_, err := client.Put(ctx, fmt.Sprintf("/deploy/%d", i), fmt.Sprintf("record-%d", i))
		require.NoError(err)
	}

	get, err = client.Get(ctx, "/deploy/", v3.WithPrefix())
	require.NoError(err)
	require.Len(get.Kvs, 5)
	for i, kv := range get.Kvs {
		require.Equal(fmt.Sprintf("/deploy/%d", i), string(kv.Key))
		require.Equal(fmt.Sprintf("record-%d", i), string(kv.Value))
	}
}
