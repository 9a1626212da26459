package milvus

import (
	"context"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// api is the subset of the Milvus client the sink uses.
type api interface {
	hasCollection(ctx context.Context, name string) (bool, error)
	createCollection(ctx context.Context, schema *entity.Schema) error
	createIndex(ctx context.Context, collection, field string, idx index.Index) error
	loadCollection(ctx context.Context, collection string) error
	hasPartition(ctx context.Context, collection, partition string) (bool, error)
	createPartition(ctx context.Context, collection, partition string) error
	upsert(ctx context.Context, collection, partition string, columns []column.Column) error
	close(ctx context.Context) error
}

// clientAPI adapts *milvusclient.Client to api.
type clientAPI struct {
	c *milvusclient.Client
}

func (a clientAPI) hasCollection(ctx context.Context, name string) (bool, error) {
	return a.c.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
}

func (a clientAPI) createCollection(ctx context.Context, schema *entity.Schema) error {
	return a.c.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.CollectionName, schema))
}

func (a clientAPI) createIndex(ctx context.Context, collection, field string, idx index.Index) error {
	task, err := a.c.CreateIndex(ctx, milvusclient.NewCreateIndexOption(collection, field, idx))
	if err != nil {
		return err
	}
	return task.Await(ctx)
}

func (a clientAPI) loadCollection(ctx context.Context, collection string) error {
	task, err := a.c.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collection))
	if err != nil {
		return err
	}
	return task.Await(ctx)
}

func (a clientAPI) hasPartition(ctx context.Context, collection, partition string) (bool, error) {
	return a.c.HasPartition(ctx, milvusclient.NewHasPartitionOption(collection, partition))
}

func (a clientAPI) createPartition(ctx context.Context, collection, partition string) error {
	return a.c.CreatePartition(ctx, milvusclient.NewCreatePartitionOption(collection, partition))
}

func (a clientAPI) upsert(ctx context.Context, collection, partition string, columns []column.Column) error {
	opt := milvusclient.NewColumnBasedInsertOption(collection, columns...).WithPartition(partition)
	_, err := a.c.Upsert(ctx, opt)
	return err
}

func (a clientAPI) close(ctx context.Context) error {
	return a.c.Close(ctx)
}
