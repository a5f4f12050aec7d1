package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Money{"a": 2000, "b": 5, "c": 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":20.00,"b":0.05,"c":0.00}`, string(b))
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "-1.50", Money(-150).String())
	assert.Equal(t, "199.99", Money(19999).String())
	assert.Equal(t, int64(19999), Money(19999).MinorUnits())
}
