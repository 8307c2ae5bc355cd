package common

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerAppliesLevelAndFormat(t *testing.T) {
	log := NewLogger(LoggerConfig{Level: LogLevelWarn, Format: "json"})
	require.NotNil(t, log)
	assert.Equal(t, "warning", log.GetLevel().String())
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestContextLoggerWithFieldIsImmutable(t *testing.T) {
	base := NewContextLogger(NewLogger(DefaultLoggerConfig()), map[string]interface{}{"service": "recommendation"})
	derived := base.WithField("component", "sync")

	assert.NotContains(t, base.fields, "component")
	assert.Equal(t, "sync", derived.fields["component"])
	assert.Equal(t, "recommendation", derived.fields["service"])
}

func TestServiceLoggerSetsServiceAndVersion(t *testing.T) {
	log := ServiceLogger("recommendation", "test")
	assert.Equal(t, "recommendation", log.fields["service"])
	assert.Equal(t, "test", log.fields["version"])
}

func TestLogOperationReturnsUnderlyingError(t *testing.T) {
	log := ServiceLogger("recommendation", "test")
	wantErr := errors.New("boom")

	err := LogOperation(log, "connect_stores", func() error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
}

func TestLogOperationSucceeds(t *testing.T) {
	log := ServiceLogger("recommendation", "test")
	called := false

	err := LogOperation(log, "connect_stores", func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}
