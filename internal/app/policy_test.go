package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyByName(t *testing.T) {
	cases := []struct {
		name string
		want BackpressureAction
	}{
		{"disconnect", Disconnect},
		{"drop", DropFrame},
		{"", Disconnect},
		{"mark-slow", Disconnect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PolicyByName(tc.name).OnBackPressure("c1", "alice"))
		})
	}
}
