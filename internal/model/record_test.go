package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAccidentType(t *testing.T) {
	assert.Equal(t, TypeVehicleOnly, DeriveAccidentType(0, 0))
	assert.Equal(t, TypeBikePedestrian, DeriveAccidentType(1, 0))
	assert.Equal(t, TypeBikePedestrian, DeriveAccidentType(0, 2))
	assert.Equal(t, TypeBikePedestrian, DeriveAccidentType(1, 1))
}
