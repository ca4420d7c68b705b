package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/dkeye/voicebridge/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	ep, insecure := normalizeEndpoint("http://otel:4318")
	assert.Equal(t, "otel:4318", ep)
	assert.True(t, insecure)

	ep, insecure = normalizeEndpoint("https://collector.example.com")
	assert.Equal(t, "collector.example.com", ep)
	assert.False(t, insecure)
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{Mode: "test"}, "voicebridge-test")
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(context.Background())) }()

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}
