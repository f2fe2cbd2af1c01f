package rabbitmq

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAcknowledger struct {
	mock.Mock
}

func (m *mockAcknowledger) Ack(multiple bool) error {
	return m.Called(multiple).Error(0)
}

func (m *mockAcknowledger) Nack(multiple, requeue bool) error {
	return m.Called(multiple, requeue).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAccountEvent_Decode(t *testing.T) {
	ev := NewAccountEvent(EventAccountCreated, "id-1", "karl")
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := DecodeAccountEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventAccountCreated, got.Type)
	assert.Equal(t, "id-1", got.AccountID)
	assert.Equal(t, "karl", got.Username)
	assert.True(t, ev.OccurredAt.Equal(got.OccurredAt))

	_, err = DecodeAccountEvent([]byte(`{"type":"account.created"}`))
	assert.Error(t, err)
	_, err = DecodeAccountEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestSettle_AcksHandledEvent(t *testing.T) {
	ack := new(mockAcknowledger)
	ack.On("Ack", false).Return(nil)

	body, _ := json.Marshal(NewAccountEvent(EventAccountDeleted, "id-1", ""))
	var seen AccountEvent
	settle(discardLogger(), 1, body, ack, func(ev AccountEvent) error {
		seen = ev
		return nil
	})

	assert.Equal(t, "id-1", seen.AccountID)
	ack.AssertExpectations(t)
	ack.AssertNotCalled(t, "Nack", mock.Anything, mock.Anything)
}

func TestSettle_RequeuesOnHandlerError(t *testing.T) {
	ack := new(mockAcknowledger)
	ack.On("Nack", false, true).Return(nil)

	body, _ := json.Marshal(NewAccountEvent(EventAccountUpdated, "id-1", "karl"))
	settle(discardLogger(), 2, body, ack, func(AccountEvent) error {
		return errors.New("downstream unavailable")
	})

	ack.AssertExpectations(t)
}

func TestSettle_DropsMalformed(t *testing.T) {
	ack := new(mockAcknowledger)
	ack.On("Nack", false, false).Return(nil)

	called := false
	settle(discardLogger(), 3, []byte("{}"), ack, func(AccountEvent) error {
		called = true
		return nil
	})

	assert.False(t, called)
	ack.AssertExpectations(t)
}

func TestClient_WithoutChannel(t *testing.T) {
	c := &Client{logger: discardLogger()}
	assert.ErrorIs(t, c.Publish(AccountExchange, EventAccountCreated, nil), errNoChannel)
	assert.NoError(t, c.Close())
}
