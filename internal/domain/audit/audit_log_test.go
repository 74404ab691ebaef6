package audit

import (
	"encoding/json"
	"testing"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	shared.BaseDomainEvent
	Note string `json:"note"`
}

func TestFromEvent(t *testing.T) {
	tenantID, aggID, actor := uuid.New(), uuid.New(), uuid.New()
	ev := &sampleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SomethingHappened", "Thing", aggID, tenantID),
		Note:            "hello",
	}
	ev.Actor = actor

	l, err := FromEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, tenantID, l.TenantID)
	assert.Equal(t, ev.EventID(), l.EventID)
	assert.Equal(t, "Thing", l.AggregateType)
	require.NotNil(t, l.ActorID)
	assert.Equal(t, actor, *l.ActorID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(l.Payload, &payload))
	assert.Equal(t, "hello", payload["note"])
}

func TestFromEvent_NoActor(t *testing.T) {
	ev := &sampleEvent{BaseDomainEvent: shared.NewBaseDomainEvent("X", "Thing", uuid.New(), uuid.New())}
	l, err := FromEvent(ev)
	require.NoError(t, err)
	assert.Nil(t, l.ActorID)
}
