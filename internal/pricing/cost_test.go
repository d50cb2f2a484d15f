package pricing

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestTotal(t *testing.T) {
    t.Run("reference booking with ten percent tax", func(t *testing.T) {
        // 500.00 venue + 100.00 service - 50.00 discount = 550.00,
        // plus 10% tax = 605.00 exactly.
        got := Total(50000, 10000, 0, 5000, 1000)
        assert.Equal(t, uint64(60500), got)
    })

    t.Run("additional charges enter the taxable base", func(t *testing.T) {
        // 400.00 + 100.00 + 75.00 - 25.00 = 550.00, plus 10% = 605.00.
        assert.Equal(t, uint64(60500), Total(40000, 10000, 7500, 2500, 1000))
    })

    t.Run("no tax", func(t *testing.T) {
        assert.Equal(t, uint64(50000), Total(30000, 15000, 5000, 0, 0))
    })

    t.Run("discount equal to subtotal", func(t *testing.T) {
        assert.Equal(t, uint64(0), Total(10000, 5000, 0, 15000, 1000))
    })

    t.Run("discount larger than subtotal clamps to zero", func(t *testing.T) {
        assert.Equal(t, uint64(0), Total(1000, 0, 0, 99999, 1000))
    })

    t.Run("rounds half up", func(t *testing.T) {
        // 33 cents + 7.5% tax = 35.475 cents -> 35.
        assert.Equal(t, uint64(35), Total(33, 0, 0, 0, 750))
        // 30 cents + 8.5% tax = 32.55 cents -> 33.
        assert.Equal(t, uint64(33), Total(30, 0, 0, 0, 850))
        // Exactly half a cent rounds up: 50 cents + 1% = 50.5 -> 51.
        assert.Equal(t, uint64(51), Total(50, 0, 0, 0, 100))
    })

    t.Run("zero components", func(t *testing.T) {
        assert.Equal(t, uint64(0), Total(0, 0, 0, 0, 1000))
    })
}
