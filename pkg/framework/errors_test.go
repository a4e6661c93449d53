package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())

	errs.Add(errors.New("zero gauges"))
	require.Equal(t, "zero gauges", errs.Aggregate().Error())

	errs.Add(nil, context.DeadlineExceeded)
	err := errs.Aggregate()
	require.Error(t, err)
	require.Len(t, errs.Errors, 2)
	require.Equal(t, "Multiple errors:\nzero gauges\ncontext deadline exceeded", err.Error())
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}
