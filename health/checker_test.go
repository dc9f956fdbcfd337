package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "healthy", StatusHealthy.String())
	assert.Equal(t, "degraded", StatusDegraded.String())
	assert.Equal(t, "unhealthy", StatusUnhealthy.String())
	assert.Equal(t, "unknown", Status(99).String())
}

func TestStatus_Worst(t *testing.T) {
	assert.Equal(t, StatusDegraded, StatusHealthy.Worst(StatusDegraded))
	assert.Equal(t, StatusUnhealthy, StatusUnhealthy.Worst(StatusDegraded))
	assert.Equal(t, StatusHealthy, StatusHealthy.Worst(StatusHealthy))
}

func TestResultConstructors(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, StatusHealthy, Healthy("ok").Status)
	assert.Equal(t, StatusDegraded, Degraded("slow").Status)

	r := Unhealthy("down", err).WithDetails(map[string]any{"k": 1})
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, "down", r.Message)
	assert.ErrorIs(t, r.Error, err)
	assert.Equal(t, 1, r.Details["k"])
}

func TestCheckerFunc(t *testing.T) {
	c := NewCheckerFunc("db", func(context.Context) Result { return Healthy("up") })

	assert.Equal(t, "db", c.Name())
	assert.Equal(t, "up", c.Check(context.Background()).Message)
}
