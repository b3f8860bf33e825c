package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusParked, StatusRequested, true},
		{StatusParked, StatusReady, true},
		{StatusParked, StatusDelivered, false},
		{StatusRequested, StatusReady, true},
		{StatusRequested, StatusDelivered, true},
		{StatusRequested, StatusRequested, false},
		{StatusReady, StatusDelivered, true},
		{StatusReady, StatusRequested, false},
		{StatusDelivered, StatusRequested, false},
		{StatusDelivered, StatusReady, false},
		{StatusDelivered, StatusDelivered, false},
		{StatusDelivered, StatusParked, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}
