package shardingerror

import (
	"errors"
	"fmt"
)

const (
	SHARD_UNEXPECTED            = "SHARDU"
	SHARD_ROUTING_ERROR         = "SHARDR"
	SHARD_NO_DATANODE           = "SHARDD"
	SHARD_MISSING_HINT          = "SHARDH"
	SHARD_MISSING_SHARDING_KEY  = "SHARDM"
	SHARD_TYPE_COERCION         = "SHARDT"
	SHARD_UNEXPECTED_EXPRESSION = "SHARDE"
	SHARD_EXECUTION_FAILURE     = "SHARDX"
	SHARD_MERGE_USAGE           = "SHARDG"
	SHARD_INVALID_CONFIG        = "SHARDC"
	SHARD_NOT_IMPLEMENTED       = "SHARDN"
)

var existingErrorCodeMap = map[string]string{
	SHARD_ROUTING_ERROR:         "Routing error",
	SHARD_NO_DATANODE:           "failed to match any data node",
	SHARD_MISSING_HINT:          "RouteHintMissing",
	SHARD_MISSING_SHARDING_KEY:  "ShardingKeysMissing",
	SHARD_TYPE_COERCION:         "TypeCoercion",
	SHARD_UNEXPECTED_EXPRESSION: "UnexpectedExpression",
	SHARD_EXECUTION_FAILURE:     "Execution failure",
	SHARD_MERGE_USAGE:           "MergedResultMisuse",
	SHARD_INVALID_CONFIG:        "Invalid sharding configuration",
	SHARD_NOT_IMPLEMENTED:       "Not implemented",
}

func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &ShardingError{}

type ShardingError struct {
	Err error

	ErrorCode string
}

func New(errorCode string, errorMsg string) *ShardingError {
	return &ShardingError{
		Err:       errors.New(errorMsg),
		ErrorCode: errorCode,
	}
}

func Newf(errorCode string, format string, a ...any) *ShardingError {
	return &ShardingError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

func NewByCode(errorCode string) *ShardingError {
	return &ShardingError{
		Err:       errors.New(GetMessageByCode(errorCode)),
		ErrorCode: errorCode,
	}
}

// Wrap keeps err reachable through errors.Is / errors.As.
func Wrap(errorCode string, err error) *ShardingError {
	return &ShardingError{
		Err:       err,
		ErrorCode: errorCode,
	}
}

func (er *ShardingError) Error() string {
	return fmt.Sprintf("Code: %s. Name: %s. Description: %s.",
		er.ErrorCode, GetMessageByCode(er.ErrorCode), er.Err)
}

func (er *ShardingError) Unwrap() error {
	return er.Err
}

// HasCode reports whether any ShardingError in err's chain carries code.
func HasCode(err error, code string) bool {
	var se *ShardingError
	for err != nil {
		if !errors.As(err, &se) {
			return false
		}
		if se.ErrorCode == code {
			return true
		}
		err = se.Err
	}
	return false
}
