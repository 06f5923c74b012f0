package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string   `validate:"required"`
	TargetOU string   `validate:"omitempty,dn"`
	Mode     string   `validate:"omitempty,oneof=a b"`
	Tags     []string `validate:"max=2"`
}

func TestDNTag(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(sample{Name: "x", TargetOU: "OU=IT,DC=corp,DC=local"}))
	require.Error(t, v.Struct(sample{Name: "x", TargetOU: "nowhere"}))
}

func TestMessages(t *testing.T) {
	v := New()

	err := v.Struct(sample{TargetOU: "nowhere", Mode: "c", Tags: []string{"1", "2", "3"}})
	require.Error(t, err)

	assert.Equal(t, []string{
		"Name is required",
		"TargetOU is not a valid distinguished name",
		"Mode must be one of a b",
		"Tags must satisfy max=2",
	}, Messages(err))

	assert.Nil(t, Messages(nil))
	assert.Equal(t, []string{"plain"}, Messages(errors.New("plain")))
}
