package redis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier"
)

func TestFactory(t *testing.T) {
	t.Parallel()

	t.Run("missing url", func(t *testing.T) {
		t.Parallel()

		_, err := Factory(courier.DriverConfig{})
		require.ErrorIs(t, err, courier.ErrMissingConfig)
		require.ErrorContains(t, err, "url")
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()

		_, err := Factory(courier.DriverConfig{"url": "http://not-redis"})
		require.ErrorIs(t, err, courier.ErrInvalidConfig)
	})

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		d, err := Factory(courier.DriverConfig{"url": "redis://localhost:6379/0"})
		require.NoError(t, err)

		driver, ok := d.(*Driver)
		require.True(t, ok)
		require.Equal(t, DefaultQueue, driver.Queue())
	})

	t.Run("custom queue", func(t *testing.T) {
		t.Parallel()

		d, err := Factory(courier.DriverConfig{
			"url":   "redis://localhost:6379/0",
			"queue": "mail:pending",
		})
		require.NoError(t, err)
		require.Equal(t, "mail:pending", d.(*Driver).Queue())
	})
}
