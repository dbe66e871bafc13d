package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"furnistore/internal/domain"
	"furnistore/internal/session"
)

func newCheckoutHandlers() *handlers {
	logger := log.New(io.Discard, "", 0)
	return newHandlers(Deps{
		Sessions:   session.NewManager(nil, time.Minute, logger),
		SessionTTL: time.Minute,
	}, logger)
}

func TestFinalizerSharedPerToken(t *testing.T) {
	h := newCheckoutHandlers()

	fin := h.finalizer("tok-a")
	if h.finalizer("tok-a") != fin {
		t.Fatalf("expected the same checkout flow for the same token")
	}
	if h.finalizer("tok-b") == fin {
		t.Fatalf("expected distinct flows per token")
	}
}

func TestFinalizerEvictedAfterTTL(t *testing.T) {
	h := newCheckoutHandlers()
	now := time.Unix(1700000000, 0)
	h.now = func() time.Time { return now }

	old := h.finalizer("tok")
	now = now.Add(2 * time.Minute)

	fresh := h.finalizer("tok")
	if fresh == old {
		t.Fatalf("expected expired flow replaced")
	}

	// The evicted flow is closed so it can neither navigate nor submit.
	if _, err := old.Load(context.Background()); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected evicted flow closed, got %v", err)
	}
}

func TestFinalizerAccessSlidesExpiry(t *testing.T) {
	h := newCheckoutHandlers()
	now := time.Unix(1700000000, 0)
	h.now = func() time.Time { return now }

	fin := h.finalizer("tok")
	for i := 0; i < 3; i++ {
		now = now.Add(40 * time.Second)
		if h.finalizer("tok") != fin {
			t.Fatalf("active flow must not expire while in use")
		}
	}
}

func TestAuthRejectionDropsFinalizer(t *testing.T) {
	h := newCheckoutHandlers()

	fin := h.finalizer("tok")
	h.dropOnAuthFailure("tok", domain.ErrUnauthenticated)

	if _, err := fin.Load(context.Background()); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected dropped flow closed, got %v", err)
	}
	if h.finalizer("tok") == fin {
		t.Fatalf("expected a fresh flow after the token was rejected")
	}
}

func TestOtherFailuresKeepFinalizer(t *testing.T) {
	h := newCheckoutHandlers()

	fin := h.finalizer("tok")
	h.dropOnAuthFailure("tok", errors.New("connection reset"))

	if h.finalizer("tok") != fin {
		t.Fatalf("transport failures must not retire the checkout flow")
	}
}
