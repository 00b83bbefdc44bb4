package concurrency

import "testing"

type stubFilter struct {
	name     string
	excluded map[string]struct{}
	onChange func()
}

func (s *stubFilter) Name() string                          { return s.name }
func (s *stubFilter) TypesToExclude() map[string]struct{}   { return s.excluded }
func (s *stubFilter) Subscribe(onChange func())             { s.onChange = onChange }

func TestFilterBusUnionsExclusions(t *testing.T) {
	bus := NewFilterBus()
	bus.Register(&stubFilter{name: "a", excluded: map[string]struct{}{"email": {}}})
	bus.Register(&stubFilter{name: "b", excluded: map[string]struct{}{"sms": {}, "email": {}}})

	union := bus.ExcludedTypes()
	if len(union) != 2 {
		t.Fatalf("expected 2 excluded types, got %d: %v", len(union), union)
	}
	if _, ok := union["email"]; !ok {
		t.Fatalf("expected email excluded")
	}
	if _, ok := union["sms"]; !ok {
		t.Fatalf("expected sms excluded")
	}
}

func TestFilterBusWakeOnChange(t *testing.T) {
	bus := NewFilterBus()
	f := &stubFilter{name: "a", excluded: map[string]struct{}{}}
	bus.Register(f)

	woke := false
	bus.OnWake(func() { woke = true })

	f.onChange()
	if !woke {
		t.Fatalf("expected wake callback to fire")
	}
}
