package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aeolun/notify/pkg/channelview"
	"github.com/aeolun/notify/pkg/client"
	"github.com/aeolun/notify/pkg/subscription"
	"pgregory.net/rapid"
)

// Test pure functions (no dependencies on Model state)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"wraps", "hello world", 5, []string{"hello", "world"}},
		{"long word overflows", "supercalifragilistic", 5, []string{"supercalifragilistic"}},
		{"keeps newlines", "a\nb", 10, []string{"a", "b"}},
		{"empty", "", 10, []string{""}},
		{"no width", "hello world", 0, []string{"hello world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trunc"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", fmt.Errorf("fetch: %w", client.ErrNotFound), "Channel not found"},
		{"network", &client.APIError{StatusCode: 502}, "Could not reach the server, retrying"},
		{"unresolved", channelview.ErrIdentityUnresolved, "Channel is still loading"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeError(tt.err); got != tt.want {
				t.Errorf("describeError() = %q, want %q", got, tt.want)
			}
		})
	}

	// Registration failures caused by the network are reported as registration failures
	err := fmt.Errorf("%w: %w", subscription.ErrRegistration, client.ErrNetwork)
	if got := describeError(err); !strings.HasPrefix(got, "Could not register this device") {
		t.Errorf("describeError(registration) = %q", got)
	}
	err = fmt.Errorf("%w: disk full", subscription.ErrIdentity)
	if got := describeError(err); !strings.HasPrefix(got, "Device identity unavailable") {
		t.Errorf("describeError(identity) = %q", got)
	}
}

func TestNotificationBody(t *testing.T) {
	one := []client.Message{{Message: "build finished"}}
	if got := notificationBody(one); got != "build finished" {
		t.Errorf("notificationBody(one) = %q", got)
	}

	three := []client.Message{{Message: "a"}, {Message: "b"}, {Message: "c"}}
	if got := notificationBody(three); got != "a (+2 more)" {
		t.Errorf("notificationBody(three) = %q", got)
	}

	long := []client.Message{{Message: strings.Repeat("x", 300)}}
	if got := notificationBody(long); len(got) != 100 {
		t.Errorf("notificationBody(long) length = %d, want 100", len(got))
	}

	if got := notificationBody(nil); got != "" {
		t.Errorf("notificationBody(nil) = %q", got)
	}
}

func TestRenderMessageListEmpty(t *testing.T) {
	for _, msgs := range [][]client.Message{nil, {}} {
		out := renderMessageList(msgs, 60)
		if !strings.Contains(out, EmptyFeedPlaceholder) {
			t.Errorf("empty list rendered %q, want placeholder", out)
		}
	}
}

func TestRenderQR(t *testing.T) {
	code, err := RenderQR("https://notify.run/c/abc")
	if err != nil {
		t.Fatalf("RenderQR failed: %v", err)
	}
	lines := strings.Split(code, "\n")
	if len(lines) < 10 {
		t.Errorf("QR code has %d lines, want at least 10", len(lines))
	}
}

// TestRenderMessageListRapid checks that every message is rendered exactly
// once, in the order received, and that the placeholder only appears for
// an empty list
func TestRenderMessageListRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "count")
		width := rapid.IntRange(10, 120).Draw(t, "width")

		msgs := make([]client.Message, n)
		for i := range msgs {
			word := rapid.StringMatching(`[a-z]{0,12}`).Draw(t, fmt.Sprintf("word%d", i))
			msgs[i] = client.Message{
				Message: fmt.Sprintf("m%03dx%s", i, word),
				Time:    fmt.Sprintf("t%03d", i),
			}
		}

		out := renderMessageList(msgs, width)

		if n == 0 {
			if !strings.Contains(out, EmptyFeedPlaceholder) {
				t.Fatalf("empty list did not render the placeholder")
			}
			return
		}
		if strings.Contains(out, EmptyFeedPlaceholder) {
			t.Fatalf("placeholder rendered for %d messages", n)
		}

		last := -1
		for i, msg := range msgs {
			if c := strings.Count(out, fmt.Sprintf("m%03dx", i)); c != 1 {
				t.Fatalf("message %d rendered %d times", i, c)
			}
			idx := strings.Index(out, msg.Message)
			if idx < 0 {
				t.Fatalf("message %d text %q missing", i, msg.Message)
			}
			if idx <= last {
				t.Fatalf("message %d out of order", i)
			}
			last = idx
		}
	})
}
