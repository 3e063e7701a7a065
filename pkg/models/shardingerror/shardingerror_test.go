package shardingerror_test

import (
	"errors"
	"testing"

	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	is := assert.New(t)

	err := shardingerror.New(shardingerror.SHARD_NO_DATANODE, "table t_order")
	is.Equal("Code: SHARDD. Name: failed to match any data node. Description: table t_order.", err.Error())

	err = shardingerror.NewByCode("bogus")
	is.Contains(err.Error(), "Unexpected error")
}

func TestHasCodeThroughWrapping(t *testing.T) {
	is := assert.New(t)

	cause := errors.New("connection reset")
	err := pkgerrors.Wrap(shardingerror.Wrap(shardingerror.SHARD_EXECUTION_FAILURE, cause), "target ds_0")

	is.True(shardingerror.HasCode(err, shardingerror.SHARD_EXECUTION_FAILURE))
	is.False(shardingerror.HasCode(err, shardingerror.SHARD_ROUTING_ERROR))
	is.ErrorIs(err, cause)
	is.False(shardingerror.HasCode(cause, shardingerror.SHARD_EXECUTION_FAILURE))
}
