package logging

import "testing"

func TestNew(t *testing.T) {
	l, err := New("dev", "debug", false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	l.Debug("hello")
	if _, err := New("dev", "loud", true); err == nil {
		t.Fatalf("expected error for bad level")
	}
}
