package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckBooking_Cooldown(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		AttemptCooldown: 10 * time.Second,
		MaxPerHour:      30,
		MaxIPPerHour:    120,
		Clock:           clock,
	})
	defer limiter.Close()

	identifier := "ana@example.com"
	ip := "192.168.1.1"

	// First attempt should be allowed
	result := limiter.CheckBooking(identifier, ip)
	if !result.Allowed {
		t.Errorf("First attempt should be allowed, got blocked: %s", result.Reason)
	}
	limiter.RecordBooking(identifier, ip)

	// Second attempt within cooldown should be blocked
	clock.Advance(4 * time.Second)
	result = limiter.CheckBooking(identifier, ip)
	if result.Allowed {
		t.Error("Second attempt within cooldown should be blocked")
	}
	if result.Reason != "cooldown" {
		t.Errorf("Expected reason 'cooldown', got '%s'", result.Reason)
	}
	if result.RetryAfter != 6*time.Second {
		t.Errorf("Expected RetryAfter 6s, got %v", result.RetryAfter)
	}

	// After cooldown expires, should be allowed
	clock.Advance(7 * time.Second)
	result = limiter.CheckBooking(identifier, ip)
	if !result.Allowed {
		t.Errorf("Attempt after cooldown should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckBooking_HourlyLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		AttemptCooldown: 1 * time.Millisecond,
		MaxPerHour:      3,
		MaxIPPerHour:    120,
		Clock:           clock,
	})
	defer limiter.Close()

	identifier := "hourly@example.com"
	ip := "192.168.1.2"

	// First 3 attempts should be allowed
	for i := 0; i < 3; i++ {
		clock.Advance(1 * time.Second)
		result := limiter.CheckBooking(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordBooking(identifier, ip)
	}

	// 4th attempt should be blocked (hourly limit)
	clock.Advance(1 * time.Second)
	result := limiter.CheckBooking(identifier, ip)
	if result.Allowed {
		t.Error("4th attempt should be blocked (hourly limit)")
	}
	if result.Reason != "hourly_limit" {
		t.Errorf("Expected reason 'hourly_limit', got '%s'", result.Reason)
	}

	// After hour passes, should be allowed again
	clock.Advance(1 * time.Hour)
	result = limiter.CheckBooking(identifier, ip)
	if !result.Allowed {
		t.Errorf("Attempt after hour should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckBooking_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		AttemptCooldown: 1 * time.Millisecond,
		MaxPerHour:      100,
		MaxIPPerHour:    2,
		Clock:           clock,
	})
	defer limiter.Close()

	ip := "192.168.1.3"

	// First 2 attempts from different customers should be allowed
	for i := 0; i < 2; i++ {
		identifier := "user" + string(rune('a'+i)) + "@example.com"
		clock.Advance(1 * time.Second)
		result := limiter.CheckBooking(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordBooking(identifier, ip)
	}

	// 3rd attempt from same IP should be blocked
	clock.Advance(1 * time.Second)
	result := limiter.CheckBooking("userc@example.com", ip)
	if result.Allowed {
		t.Error("3rd attempt from same IP should be blocked")
	}
	if result.Reason != "ip_hourly_limit" {
		t.Errorf("Expected reason 'ip_hourly_limit', got '%s'", result.Reason)
	}
}

func TestCheckBooking_IdentifierNormalization(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		AttemptCooldown: 10 * time.Second,
		MaxPerHour:      30,
		MaxIPPerHour:    120,
		Clock:           clock,
	})
	defer limiter.Close()

	ip := "192.168.1.1"

	// First attempt with lowercase
	result := limiter.CheckBooking("user@example.com", ip)
	if !result.Allowed {
		t.Error("First attempt should be allowed")
	}
	limiter.RecordBooking("user@example.com", ip)

	// Second attempt with UPPERCASE should be blocked (same identifier)
	result = limiter.CheckBooking("USER@EXAMPLE.COM", ip)
	if result.Allowed {
		t.Error("Attempt with different case should be blocked (same identifier)")
	}
	if result.Reason != "cooldown" {
		t.Errorf("Expected reason 'cooldown', got '%s'", result.Reason)
	}

	// Mixed case should also be blocked
	result = limiter.CheckBooking("User@Example.Com", ip)
	if result.Allowed {
		t.Error("Attempt with mixed case should be blocked")
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50", // Rightmost non-private
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1", // Last one when all private
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100", // Uses RemoteAddr, ignores spoofed XFF
		},
		{
			name:       "TrustProxy=false, ignores X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetClientIP_SpoofingPrevention(t *testing.T) {
	// Attacker sends fake X-Forwarded-For header
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4") // Attacker-supplied
	r.RemoteAddr = "192.168.1.100:54321"       // Real connection

	// With TrustProxy=false, the fake header is ignored
	got := GetClientIP(r, false)
	if got != "192.168.1.100" {
		t.Errorf("Should ignore X-Forwarded-For when TrustProxy=false, got %q", got)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ana.torres@example.com", "an***@example.com"},
		{"ANA.TORRES@EXAMPLE.COM", "an***@example.com"}, // Normalized to lowercase
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"+5215512345678", "***5678"},
		{"5512345678", "***5678"},
		{"123", "***"},
		{"", "***"},
		{"  User@Example.Com  ", "us***@example.com"}, // Trimmed and lowercased
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeIdentifier(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.AttemptCooldown != 2*time.Second {
		t.Errorf("AttemptCooldown = %v, want 2s", cfg.AttemptCooldown)
	}
	if cfg.MaxPerHour != 30 {
		t.Errorf("MaxPerHour = %d, want 30", cfg.MaxPerHour)
	}
	if cfg.MaxIPPerHour != 120 {
		t.Errorf("MaxIPPerHour = %d, want 120", cfg.MaxIPPerHour)
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter == nil {
		t.Error("New(nil) should return a valid limiter")
	}
	if limiter.config.AttemptCooldown != 2*time.Second {
		t.Error("New(nil) should use default config")
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)

	// Trigger cleanup goroutine
	limiter.CheckBooking("test@example.com", "1.2.3.4")

	// Close should not hang
	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-time.After(1 * time.Second):
		t.Error("Close() should not hang")
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		AttemptCooldown: 1 * time.Millisecond,
		MaxPerHour:      100000,
		MaxIPPerHour:    100000,
		Clock:           clock,
	})
	defer limiter.Close()

	var wg sync.WaitGroup
	numGoroutines := 100
	numOps := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			identifier := "user@example.com"
			ip := "192.168.1.1"
			for j := 0; j < numOps; j++ {
				result := limiter.CheckBooking(identifier, ip)
				if result.Allowed {
					limiter.RecordBooking(identifier, ip)
				}
			}
		}(i)
	}

	wg.Wait()
	// If we get here without race detector complaints, test passes
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		// IPv4 private ranges
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		// IPv6 private/reserved
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true}, // Link-local
		// IPv4-mapped IPv6 addresses (must match their IPv4 equivalents)
		{"::ffff:10.0.0.1", true},
		{"::ffff:192.168.1.1", true},
		{"::ffff:8.8.8.8", false}, // Public IP in IPv4-mapped format
		// Public IPs
		{"203.0.113.50", false},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		// Invalid
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			got := isPrivateIP(tt.ip)
			if got != tt.expected {
				t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}

func TestCheckAndRecord_SeparateOps(t *testing.T) {
	// Verify that Check doesn't consume quota - only Record does
	clock := newMockClock()
	limiter := New(&Config{
		AttemptCooldown: 10 * time.Second,
		MaxPerHour:      1,
		MaxIPPerHour:    100,
		Clock:           clock,
	})
	defer limiter.Close()

	identifier := "test@example.com"
	ip := "192.168.1.1"

	// Multiple checks should all be allowed (no recording)
	for i := 0; i < 10; i++ {
		result := limiter.CheckBooking(identifier, ip)
		if !result.Allowed {
			t.Errorf("Check %d should be allowed without prior Record", i+1)
		}
	}

	// Now record once
	limiter.RecordBooking(identifier, ip)

	// Next check should be blocked (cooldown)
	result := limiter.CheckBooking(identifier, ip)
	if result.Allowed {
		t.Error("Check after Record should be blocked")
	}
}
