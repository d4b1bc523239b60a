package telemetry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/mocks"
)

func TestAuditEmitterPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.gateway", "briar-gateway", "test", logs.GetLoggerFromLevel(slog.LevelDebug))

	var captured AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit.gateway", mock.AnythingOfType("telemetry.AuditEnvelope"), map[string]string{"x-request-id": "req-1"}).
		Run(func(args mock.Arguments) { captured = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	emitter.Emit(context.Background(), "contact_removed", "req-1", map[string]string{"contact_id": "3"})

	publisher.AssertExpectations(t)
	require.Equal(t, "audit_log", captured.EventType)
	assert.Equal(t, 1, captured.SchemaVersion)
	assert.Equal(t, "briar-gateway", captured.Service)
	assert.Equal(t, "test", captured.Environment)
	assert.Equal(t, "req-1", captured.RequestID)
	assert.Equal(t, "contact_removed", captured.Payload.Action)
	assert.Equal(t, map[string]string{"contact_id": "3"}, captured.Payload.Attributes)
	assert.NotEmpty(t, captured.OccurredAt)
}

func TestAuditEmitterSwallowsPublishErrors(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.gateway", "briar-gateway", "test", logs.GetLoggerFromLevel(slog.LevelDebug))
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Once()

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "forum_created", "", nil)
	})
	publisher.AssertExpectations(t)
}

func TestNilAuditEmitter(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "message_sent", "req", nil)
	})
}
