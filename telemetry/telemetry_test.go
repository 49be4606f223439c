package telemetry_test

import (
	"context"
	"testing"

	"github.com/fwojciec/comparator/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	before := otel.GetTracerProvider()

	shutdown, err := telemetry.Init(context.Background(), "", "comparator", "test", true)

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}
