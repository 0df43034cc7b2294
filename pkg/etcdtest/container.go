// Package etcdtest runs a throwaway etcd node in docker for integration
// tests.
package etcdtest

import (
	"context"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v3 "go.etcd.io/etcd/client/v3"
)

const (
	imageName = "quay.io/coreos/etcd"
	imageTag  = "v3.5.13"

	containerAutoKill = 120 * time.Second
	probeKey          = "__solray_startup_probe"
)

// StartEtcd starts a single etcd node and returns a client connected to it.
// teardown purges the container and is safe to call on error.
func StartEtcd(pool *dockertest.Pool) (client *v3.Client, teardown func(), err error) {
	teardown = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: imageName,
		Tag:        imageTag,
		Env: []string{
			"ETCD_LISTEN_CLIENT_URLS=http://0.0.0.0:2379",
			"ETCD_ADVERTISE_CLIENT_URLS=http://0.0.0.0:2379",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, teardown, errors.Wrap(err, "failed to start etcd")
	}

	// Expire never fails.
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	log := logrus.StandardLogger().WithField("type", "etcdtest")
	teardown = func() {
		if client != nil {
			_ = client.Close()
		}
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Error("failed to purge etcd container")
		}
	}

	client, err = v3.New(v3.Config{
		Endpoints:   []string{fmt.Sprintf("localhost:%s", resource.GetPort("2379/tcp"))},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, teardown, errors.Wrap(err, "failed to create etcd client")
	}

	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := client.Get(ctx, probeKey)
		return err
	})
	if err != nil {
		return nil, teardown, errors.Wrap(err, "etcd never became reachable")
	}

	return client, teardown, nil
}
