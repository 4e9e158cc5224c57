//go:build unit

package wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewManagerAdapter(t *testing.T) {
	adapter := NewManagerAdapter()
	assert.NotNil(t, adapter)
}

func TestManagerAdapter_Stations(t *testing.T) {
	adapter := NewManagerAdapter()

	stations, err := adapter.Stations()
	if err != nil {
		t.Skip("nl80211 not available, skipping test")
	}
	for _, ifi := range stations {
		assert.NotEmpty(t, ifi.Name)
	}
}
