package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeNotifyUnsubscribe_CalledExactlyOnce(t *testing.T) {
	s := New(nil)
	calls := 0
	fn := Listener(func(attr string) { calls++ })

	s.Subscribe(Location, fn)
	s.Set(Location, LocationValue{Lat: 1})
	s.Notify(Location)
	s.Unsubscribe(Location, fn)

	s.Set(Location, LocationValue{Lat: 2})
	s.Notify(Location)

	assert.Equal(t, 1, calls)
}

func TestNotify_RegistrationOrder(t *testing.T) {
	s := New(nil)
	var order []int

	s.Subscribe(Battery, func(string) { order = append(order, 1) })
	s.Subscribe(Battery, func(string) { order = append(order, 2) })
	s.Subscribe(Battery, func(string) { order = append(order, 3) })

	s.Notify(Battery)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestNotify_PanickingListenerDoesNotBlockSiblings(t *testing.T) {
	s := New(nil)
	second := false

	s.Subscribe(Mode, func(string) { panic("boom") })
	s.Subscribe(Mode, func(string) { second = true })

	assert.NotPanics(t, func() { s.Notify(Mode) })
	assert.True(t, second)
}

func TestSnapshot_ReturnsLastWrittenValue(t *testing.T) {
	s := New(nil)
	_, ok := s.Snapshot(Armed)
	assert.False(t, ok)

	s.Set(Armed, true)
	v, ok := s.Snapshot(Armed)
	assert.True(t, ok)
	assert.Equal(t, true, v)
}
