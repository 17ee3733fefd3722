package service_test

import (
	"time"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// day is a Tuesday.
var day = time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func kinds(events []types.Event) []types.Kind {
	out := make([]types.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}
