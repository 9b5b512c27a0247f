package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"address-gateway/middleware/ratelimit/domain"
)

type fakeStore struct {
	dec   domain.Decision
	err   error
	calls int
}

func (s *fakeStore) Check(context.Context, domain.Key, domain.Endpoint, domain.Policy) (domain.Decision, error) {
	s.calls++
	return s.dec, s.err
}

func (s *fakeStore) Sweep(context.Context) (int, error) { return 0, nil }

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestService_Decide_NoStoreIsAnError(t *testing.T) {
	svc := Service{Policies: domain.DefaultPolicies()}
	dec, err := svc.Decide(context.Background(), "k", domain.EndpointConvert)
	if !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
	if dec.Allowed {
		t.Fatalf("expected a denied zero decision without a store")
	}
}

func TestService_Decide_UnknownEndpoint(t *testing.T) {
	svc := Service{Store: &fakeStore{}, Policies: domain.DefaultPolicies()}
	_, err := svc.Decide(context.Background(), "k", domain.Endpoint("other"))
	if !errors.Is(err, ErrUnknownEndpoint) {
		t.Fatalf("expected ErrUnknownEndpoint, got %v", err)
	}
}

func TestService_Decide_AllowsWhenStoreAllows(t *testing.T) {
	store := &fakeStore{dec: domain.Decision{Allowed: true, Limit: 100, Remaining: 99, ResetAt: t0.Add(time.Minute)}}
	svc := Service{Store: store, Policies: domain.DefaultPolicies(), Now: func() time.Time { return t0 }}
	dec, err := svc.Decide(context.Background(), "k", domain.EndpointConvert)
	if err != nil || !dec.Allowed {
		t.Fatalf("expected allowed, got %+v err=%v", dec, err)
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected no RetryAfter when allowed, got %s", dec.RetryAfter)
	}
	if store.calls != 1 {
		t.Fatalf("expected store to be called once, got %d", store.calls)
	}
}

func TestService_Decide_BlocksWithRetryAfterRoundedUp(t *testing.T) {
	store := &fakeStore{dec: domain.Decision{Allowed: false, Limit: 20, ResetAt: t0.Add(2500 * time.Millisecond)}}
	svc := Service{Store: store, Policies: domain.DefaultPolicies(), Now: func() time.Time { return t0 }}
	dec, err := svc.Decide(context.Background(), "k", domain.EndpointBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 3*time.Second {
		t.Fatalf("expected RetryAfter=3s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_PropagatesStoreError(t *testing.T) {
	boom := errors.New("redis down")
	svc := Service{Store: &fakeStore{err: boom}, Policies: domain.DefaultPolicies()}
	if _, err := svc.Decide(context.Background(), "k", domain.EndpointConvert); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestRetryAfter_HasOneSecondFloor(t *testing.T) {
	if got := RetryAfter(t0.Add(10*time.Millisecond), t0); got != time.Second {
		t.Fatalf("expected 1s, got %s", got)
	}
	if got := RetryAfter(t0.Add(60*time.Second), t0); got != 60*time.Second {
		t.Fatalf("expected 60s, got %s", got)
	}
}
