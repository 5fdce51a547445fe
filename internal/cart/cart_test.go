package cart

import (
	"errors"
	"strings"
	"testing"

	"github.com/mmeshcher/sweetshop-system/internal/model"
)

func testItem(id int64, name string, price int64) model.MenuItem {
	return model.MenuItem{
		ID:         id,
		Name:       name,
		PriceCents: price,
		Available:  true,
	}
}

func TestAdd_SameItemIncrementsQuantity(t *testing.T) {
	c := New()

	if err := c.Add(testItem(1, "Brigadeiro", 350), 2); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := c.Add(testItem(1, "Brigadeiro", 350), 1); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", lines[0].Quantity)
	}
}

func TestAdd_UnavailableItemRejected(t *testing.T) {
	c := New()

	item := testItem(1, "Torta holandesa", 6000)
	item.Available = false

	err := c.Add(item, 1)
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("cart must stay empty after rejected add")
	}
}

func TestSubtotal(t *testing.T) {
	c := New()

	_ = c.Add(testItem(1, "Brigadeiro", 350), 2)
	_ = c.Add(testItem(2, "Bolo de cenoura", 4500), 1)

	want := int64(2*350 + 4500)
	if got := c.SubtotalCents(); got != want {
		t.Fatalf("SubtotalCents = %d, want %d", got, want)
	}
	if got := c.ItemCount(); got != 3 {
		t.Fatalf("ItemCount = %d, want 3", got)
	}
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	c := New()

	_ = c.Add(testItem(1, "Brigadeiro", 350), 2)

	if err := c.SetQuantity(1, 0); err != nil {
		t.Fatalf("SetQuantity error: %v", err)
	}

	if !c.IsEmpty() {
		t.Fatalf("cart must be empty after removing the only line")
	}
	if c.ItemCount() != 0 {
		t.Fatalf("ItemCount = %d, want 0", c.ItemCount())
	}
	if c.SubtotalCents() != 0 {
		t.Fatalf("SubtotalCents = %d, want 0", c.SubtotalCents())
	}
}

func TestSetQuantity_UnknownLine(t *testing.T) {
	c := New()

	err := c.SetQuantity(99, 2)
	if !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestSetNote(t *testing.T) {
	c := New()

	_ = c.Add(testItem(1, "Brigadeiro", 350), 1)

	if err := c.SetNote(1, "sem granulado"); err != nil {
		t.Fatalf("SetNote error: %v", err)
	}
	if c.Lines()[0].Note != "sem granulado" {
		t.Fatalf("note = %q, want %q", c.Lines()[0].Note, "sem granulado")
	}

	long := strings.Repeat("a", MaxNoteLength+1)
	err := c.SetNote(1, long)
	if !errors.Is(err, ErrNoteTooLong) {
		t.Fatalf("expected ErrNoteTooLong, got %v", err)
	}
	if c.Lines()[0].Note != "sem granulado" {
		t.Fatalf("rejected note must not overwrite the current one")
	}
}

func TestRemove(t *testing.T) {
	c := New()

	_ = c.Add(testItem(1, "Brigadeiro", 350), 1)
	_ = c.Add(testItem(2, "Beijinho", 350), 1)

	if err := c.Remove(1); err != nil {
		t.Fatalf("Remove error: %v", err)
	}

	lines := c.Lines()
	if len(lines) != 1 || lines[0].ItemID != 2 {
		t.Fatalf("unexpected lines after remove: %+v", lines)
	}

	if err := c.Remove(99); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestClear(t *testing.T) {
	c := New()

	_ = c.Add(testItem(1, "Brigadeiro", 350), 5)
	c.Clear()

	if !c.IsEmpty() || c.SubtotalCents() != 0 {
		t.Fatalf("cart must be empty after Clear")
	}
}
