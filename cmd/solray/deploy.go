package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	v3 "go.etcd.io/etcd/client/v3"

	"github.com/code-payments/solray/pkg/deploy"
	etcdlock "github.com/code-payments/solray/pkg/lock/etcd"
)

const etcdDialTimeout = 5 * time.Second

var storeFlag = cli.StringFlag{
	Name:  "store",
	Usage: "overrides the configured deploy store file",
}

var deployCommand = cli.Command{
	Name:  "deploy",
	Usage: "Manage the keypairs of deployed accounts",
	Subcommands: []*cli.Command{
		{
			Name:      "ensure",
			Usage:     "print the address recorded under <key>, creating a keypair when there is none",
			ArgsUsage: "<key>",
			Flags:     []cli.Flag{&storeFlag},
			Action:    deployEnsureAction,
		},
		{
			Name:   "list",
			Usage:  "print every recorded key and address",
			Flags:  []cli.Flag{&storeFlag},
			Action: deployListAction,
		},
	},
}

func deployEnsureAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	key := ctx.Args().First()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if _, err := store.Ensure(ctx.Context, key, generateKeypair); err != nil {
		return err
	}

	record, _ := store.Record(key)
	_, err = fmt.Fprintf(ctx.App.Writer, "%s %s\n", key, record.PublicKey)
	return err
}

func deployListAction(ctx *cli.Context) error {
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, key := range store.Keys() {
		record, _ := store.Record(key)
		if _, err := fmt.Fprintf(ctx.App.Writer, "%s %s\n", key, record.PublicKey); err != nil {
			return err
		}
	}
	return nil
}

func generateKeypair(context.Context) (ed25519.PrivateKey, error) {
	_, account, err := ed25519.GenerateKey(rand.Reader)
	return account, err
}

// openStore opens the deploy store, locking through etcd when endpoints are
// configured.
func openStore(ctx *cli.Context) (*deploy.Store, func(), error) {
	config := getConfig(ctx)
	path := config.DeployStore
	if ctx.IsSet(storeFlag.Name) {
		path = ctx.String(storeFlag.Name)
	}

	var opts []deploy.Option
	cleanup := func() {}

	if len(config.EtcdEndpoints) > 0 {
		client, err := v3.New(v3.Config{
			Endpoints:   config.EtcdEndpoints,
			DialTimeout: etcdDialTimeout,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create etcd client")
		}

		manager, err := etcdlock.NewManager(client, config.LockRoot, config.LockTTL, lockOwner())
		if err != nil {
			client.Close()
			return nil, nil, err
		}

		opts = append(opts, deploy.WithLockManager(manager))
		cleanup = func() {
			manager.Close()
			client.Close()
		}
	}

	store, err := deploy.Open(path, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return store, func() {
		_ = store.Close()
		cleanup()
	}, nil
}

func lockOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s/%d/%s", host, os.Getpid(), uuid.New().String())
}
