package lib

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestZipCoordinates(t *testing.T) {
	rd, mock := redismock.NewClientMock()
	NewRedisClient(rd)

	t.Run("rejects a malformed zip", func(t *testing.T) {
		coords, err := ZipCoordinates(context.Background(), "abcde")
		assert.Nil(t, coords)
		assert.Error(t, err)
	})

	t.Run("rejects a truncated zip", func(t *testing.T) {
		coords, err := ZipCoordinates(context.Background(), "9021")
		assert.Nil(t, coords)
		assert.Error(t, err)
	})

	t.Run("serves cached coordinates", func(t *testing.T) {
		mock.ExpectGet("zip:90210:coords").
			SetVal(`{"latitude":34.0901,"longitude":-118.4065}`)

		coords, err := ZipCoordinates(context.Background(), "90210")
		assert.Nil(t, err)
		assert.NotNil(t, coords)
		assert.InDelta(t, 34.0901, coords.Latitude, 0.0001)
		assert.InDelta(t, -118.4065, coords.Longitude, 0.0001)
		assert.Nil(t, mock.ExpectationsWereMet())
	})
}

func TestDistanceMiles(t *testing.T) {
	newYork := Coordinates{Latitude: 40.7128, Longitude: -74.0060}
	losAngeles := Coordinates{Latitude: 34.0522, Longitude: -118.2437}
	philadelphia := Coordinates{Latitude: 39.9526, Longitude: -75.1652}

	t.Run("same point is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceMiles(newYork, newYork))
	})

	t.Run("is symmetric", func(t *testing.T) {
		assert.Equal(t, DistanceMiles(newYork, losAngeles), DistanceMiles(losAngeles, newYork))
	})

	t.Run("matches known distances", func(t *testing.T) {
		assert.InDelta(t, 2445, DistanceMiles(newYork, losAngeles), 15)
		assert.InDelta(t, 80.5, DistanceMiles(newYork, philadelphia), 2)
	})
}
