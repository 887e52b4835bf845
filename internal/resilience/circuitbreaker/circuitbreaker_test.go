package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())
	assert.False(t, cb.IsOpen())
}

func TestExecute_Success(t *testing.T) {
	cb := New(testConfig())

	v, err := Execute(cb, func() (string, error) { return "ok", nil })

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestExecute_ReturnsCallerError(t *testing.T) {
	cb := New(testConfig())
	want := errors.New("boom")

	_, err := Execute(cb, func() (int, error) { return 0, want })

	assert.ErrorIs(t, err, want)
}

func TestExecute_TripsAndRejects(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("boom")
	for range 3 {
		_, _ = Execute(cb, func() (int, error) { return 0, boom })
	}
	require.True(t, cb.IsOpen())

	called := false
	_, err := Execute(cb, func() (int, error) { called = true; return 1, nil })

	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestExecute_HalfOpenRecovers(t *testing.T) {
	cb := New(testConfig())
	for range 3 {
		_, _ = Execute(cb, func() (int, error) { return 0, errors.New("boom") })
	}
	require.True(t, cb.IsOpen())

	time.Sleep(80 * time.Millisecond)
	v, err := Execute(cb, func() (int, error) { return 7, nil })

	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.False(t, cb.IsOpen())
}

func TestExecute_IsSuccessfulKeepsCircuitClosed(t *testing.T) {
	rejected := errors.New("endpoint disabled")
	cfg := testConfig()
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, rejected) }
	cb := New(cfg)

	for range 5 {
		_, err := Execute(cb, func() (int, error) { return 0, rejected })
		assert.ErrorIs(t, err, rejected)
	}

	assert.False(t, cb.IsOpen())
}

func TestPushPublishConfig(t *testing.T) {
	cfg := PushPublishConfig()
	assert.Equal(t, "sns-publish", cfg.Name)
	assert.Equal(t, uint32(20), cfg.MinRequests)
	assert.Equal(t, 0.5, cfg.FailureThreshold)
}
