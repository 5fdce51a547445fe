package session

import (
	"context"
	"testing"
	"time"

	"github.com/mmeshcher/sweetshop-system/internal/model"
)

func TestResetDownstream(t *testing.T) {
	s := newSession("test")
	s.Addresses = []model.Address{{ID: 1}, {ID: 2}}
	s.SelectedAddressID = 2
	s.Fulfillment = model.FulfillmentDelivery

	s.Lock()
	s.ResetDownstream()
	s.Unlock()

	if s.Addresses != nil {
		t.Fatalf("addresses must be cleared, got %+v", s.Addresses)
	}
	if s.SelectedAddressID != 0 {
		t.Fatalf("selected address must be cleared, got %d", s.SelectedAddressID)
	}
	if s.Fulfillment != model.FulfillmentPickup {
		t.Fatalf("fulfillment must reset to pickup, got %s", s.Fulfillment)
	}
}

func TestResetCustomer_ClearsDownstreamState(t *testing.T) {
	s := newSession("test")
	s.CustomerState = CustomerFound
	s.Customer = &model.Customer{ID: 7}
	s.Addresses = []model.Address{{ID: 1}}
	s.SelectedAddressID = 1
	s.Fulfillment = model.FulfillmentDelivery

	s.Lock()
	s.ResetCustomer()
	s.Unlock()

	if s.CustomerState != CustomerIdle {
		t.Fatalf("state = %s, want %s", s.CustomerState, CustomerIdle)
	}
	if s.Customer != nil {
		t.Fatalf("customer must be nil")
	}
	if s.SelectedAddressID != 0 || len(s.Addresses) != 0 {
		t.Fatalf("address book must be cleared")
	}
}

func TestSelectedAddress(t *testing.T) {
	s := newSession("test")
	s.Addresses = []model.Address{{ID: 1, Street: "Rua A"}, {ID: 2, Street: "Rua B"}}

	s.Lock()
	defer s.Unlock()

	if got := s.SelectedAddress(); got != nil {
		t.Fatalf("expected nil selection, got %+v", got)
	}

	s.SelectedAddressID = 2
	got := s.SelectedAddress()
	if got == nil || got.Street != "Rua B" {
		t.Fatalf("unexpected selected address: %+v", got)
	}

	s.SelectedAddressID = 99
	if got := s.SelectedAddress(); got != nil {
		t.Fatalf("selection pointing to missing address must return nil, got %+v", got)
	}
}

func TestTryBegin(t *testing.T) {
	s := newSession("test")

	if !s.TryBegin(OpCustomerSearch) {
		t.Fatalf("first TryBegin must succeed")
	}
	if s.TryBegin(OpCustomerSearch) {
		t.Fatalf("second TryBegin for the same operation must fail")
	}
	if !s.TryBegin(OpOrderSubmit) {
		t.Fatalf("TryBegin for another operation must succeed")
	}

	s.End(OpCustomerSearch)
	if !s.TryBegin(OpCustomerSearch) {
		t.Fatalf("TryBegin after End must succeed")
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	st := NewStore(time.Hour)

	s := st.Create()
	if s.ID == "" {
		t.Fatalf("session id must not be empty")
	}

	got, ok := st.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("Get must return the created session")
	}

	if _, ok := st.Get("missing"); ok {
		t.Fatalf("Get must not find unknown session")
	}
}

func TestStore_RemoveExpired(t *testing.T) {
	st := NewStore(10 * time.Millisecond)

	s := st.Create()

	s.Lock()
	s.lastSeen = time.Now().Add(-time.Minute)
	s.Unlock()

	st.removeExpired()

	if _, ok := st.Get(s.ID); ok {
		t.Fatalf("expired session must be removed")
	}
}

func TestStore_CleanupStopsOnCancel(t *testing.T) {
	st := NewStore(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	st.StartCleanup(ctx)

	<-ctx.Done()
	// Фоновая горутина должна завершиться без паники после отмены контекста.
	time.Sleep(20 * time.Millisecond)
}
