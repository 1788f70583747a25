package cache

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.SetBytes("weather:forecast", []byte("{}"), time.Hour)
	_ = c.SetBytes("forever", []byte("x"), 0)

	if b, ok, err := c.GetBytes("weather:forecast"); !ok || err != nil || string(b) != "{}" {
		t.Fatalf("fresh entry: %q %v %v", b, ok, err)
	}
	now = now.Add(2 * time.Hour)
	if _, ok, _ := c.GetBytes("weather:forecast"); ok {
		t.Fatalf("expired entry returned")
	}
	if _, ok, _ := c.GetBytes("forever"); !ok {
		t.Fatalf("ttl 0 should never expire")
	}
}
