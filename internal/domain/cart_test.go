package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

func price(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse price %q: %v", value, err)
	}
	return d
}

func item(t *testing.T, id int64, name, value string) domain.MenuItem {
	t.Helper()
	return domain.MenuItem{ID: id, Name: name, Price: price(t, value)}
}

func newCart() *domain.Cart {
	return domain.NewCart("cart-1", time.Now().UTC())
}

// sumEntries пересчитывает сумму независимо от Cart.Total.
func sumEntries(entries []domain.CartEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Item.Price)
	}
	return sum
}

func assertTotal(t *testing.T, cart *domain.Cart, want string) {
	t.Helper()
	got := cart.Total().StringFixed(2)
	if got != want {
		t.Fatalf("total = %s, want %s", got, want)
	}
	if !cart.Total().Equal(sumEntries(cart.Entries())) {
		t.Fatalf("total %s drifted from entries sum %s", cart.Total(), sumEntries(cart.Entries()))
	}
}

func TestCart_NewIsEmpty(t *testing.T) {
	cart := newCart()

	if cart.Len() != 0 {
		t.Fatalf("expected empty cart, got %d entries", cart.Len())
	}
	if cart.SeatNumber() != "" {
		t.Fatalf("expected empty seat, got %q", cart.SeatNumber())
	}
	assertTotal(t, cart, "0.00")
}

func TestCart_CheckoutEmptySeatOnEmptyCart(t *testing.T) {
	cart := newCart()

	_, err := cart.Checkout()
	if !errors.Is(err, domain.ErrMissingSeatNumber) {
		t.Fatalf("expected ErrMissingSeatNumber, got %v", err)
	}
	if cart.Len() != 0 {
		t.Fatalf("entries must stay empty, got %d", cart.Len())
	}
	assertTotal(t, cart, "0.00")
}

func TestCart_AddItemsKeepsInsertionOrder(t *testing.T) {
	cart := newCart()
	hotDog := item(t, 1, "Hot Dog", "5.99")
	cottonCandy := item(t, 2, "Cotton Candy", "4.99")

	cart.AddItem(hotDog)
	cart.AddItem(cottonCandy)

	assertTotal(t, cart, "10.98")
	entries := cart.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Item.ID != hotDog.ID || entries[1].Item.ID != cottonCandy.ID {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestCart_DuplicatesAreSeparateEntries(t *testing.T) {
	cart := newCart()
	soda := item(t, 6, "Soda", "3.99")

	cart.AddItem(soda)
	cart.AddItem(soda)
	cart.AddItem(soda)

	if cart.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", cart.Len())
	}
	assertTotal(t, cart, "11.97")
}

func TestCart_RemoveMiddleEntry(t *testing.T) {
	cart := newCart()
	first := item(t, 1, "Hot Dog", "5.99")
	second := item(t, 3, "Popcorn", "6.99")
	third := item(t, 7, "Peanuts", "4.50")
	cart.AddItem(first)
	cart.AddItem(second)
	cart.AddItem(third)
	before := cart.Total()

	removed, err := cart.RemoveItem(1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Item.ID != second.ID {
		t.Fatalf("removed wrong entry: %+v", removed)
	}

	entries := cart.Entries()
	if len(entries) != 2 || entries[0].Item.ID != first.ID || entries[1].Item.ID != third.ID {
		t.Fatalf("unexpected entries after remove: %+v", entries)
	}
	if !cart.Total().Equal(before.Sub(second.Price)) {
		t.Fatalf("total = %s, want %s", cart.Total(), before.Sub(second.Price))
	}
	assertTotal(t, cart, "10.49")
}

func TestCart_RemoveOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		index int
	}{
		{name: "past end", index: 5},
		{name: "exactly len", index: 2},
		{name: "negative", index: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cart := newCart()
			cart.AddItem(item(t, 1, "Hot Dog", "5.99"))
			cart.AddItem(item(t, 2, "Cotton Candy", "4.99"))
			cart.SetSeatNumber("B7")
			before := cart.Entries()

			_, err := cart.RemoveItem(tc.index)
			if !errors.Is(err, domain.ErrInvalidIndex) {
				t.Fatalf("expected ErrInvalidIndex, got %v", err)
			}

			after := cart.Entries()
			if len(after) != len(before) {
				t.Fatalf("entries changed: before %d, after %d", len(before), len(after))
			}
			for i := range before {
				if before[i].Item.ID != after[i].Item.ID {
					t.Fatalf("entry %d changed", i)
				}
			}
			if cart.SeatNumber() != "B7" {
				t.Fatalf("seat changed to %q", cart.SeatNumber())
			}
			assertTotal(t, cart, "10.98")
		})
	}
}

func TestCart_RemoveFromEmptyCart(t *testing.T) {
	cart := newCart()

	if _, err := cart.RemoveItem(0); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	assertTotal(t, cart, "0.00")
}

func TestCart_AddThenRemoveRestoresState(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 1, "Hot Dog", "5.99"))
	cart.AddItem(item(t, 8, "Nachos", "6.99"))
	beforeEntries := cart.Entries()
	beforeTotal := cart.Total()

	cart.AddItem(item(t, 4, "Pizza Slice", "7.99"))
	if _, err := cart.RemoveItem(cart.Len() - 1); err != nil {
		t.Fatalf("remove: %v", err)
	}

	afterEntries := cart.Entries()
	if len(afterEntries) != len(beforeEntries) {
		t.Fatalf("expected %d entries, got %d", len(beforeEntries), len(afterEntries))
	}
	for i := range beforeEntries {
		if beforeEntries[i] != afterEntries[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, beforeEntries[i], afterEntries[i])
		}
	}
	if !cart.Total().Equal(beforeTotal) {
		t.Fatalf("total = %s, want %s", cart.Total(), beforeTotal)
	}
}

func TestCart_CheckoutSuccessResetsState(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 10, "Combo", "8.00"))
	cart.AddItem(item(t, 7, "Peanuts", "4.50"))
	cart.SetSeatNumber("A12")

	receipt, err := cart.Checkout()
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if receipt.Total.StringFixed(2) != "12.50" {
		t.Fatalf("receipt total = %s, want 12.50", receipt.Total.StringFixed(2))
	}
	if receipt.SeatNumber != "A12" {
		t.Fatalf("receipt seat = %q, want A12", receipt.SeatNumber)
	}
	if receipt.CartID != "cart-1" {
		t.Fatalf("receipt cart id = %q", receipt.CartID)
	}
	if len(receipt.Lines) != 2 || receipt.Lines[0].Name != "Combo" || receipt.Lines[1].Name != "Peanuts" {
		t.Fatalf("unexpected receipt lines: %+v", receipt.Lines)
	}

	if cart.Len() != 0 {
		t.Fatalf("entries must be cleared, got %d", cart.Len())
	}
	if cart.SeatNumber() != "" {
		t.Fatalf("seat must be cleared, got %q", cart.SeatNumber())
	}
	assertTotal(t, cart, "0.00")
}

func TestCart_CheckoutTrimsSeatNumber(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 6, "Soda", "3.99"))
	cart.SetSeatNumber("  Sec 104, Row F  ")

	receipt, err := cart.Checkout()
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if receipt.SeatNumber != "Sec 104, Row F" {
		t.Fatalf("seat = %q", receipt.SeatNumber)
	}
}

func TestCart_CheckoutWhitespaceSeatIsIdempotentFailure(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 1, "Hot Dog", "5.99"))
	cart.SetSeatNumber(" \t ")

	for attempt := 0; attempt < 3; attempt++ {
		_, err := cart.Checkout()
		if !errors.Is(err, domain.ErrMissingSeatNumber) {
			t.Fatalf("attempt %d: expected ErrMissingSeatNumber, got %v", attempt, err)
		}
		if cart.Len() != 1 {
			t.Fatalf("attempt %d: entries changed", attempt)
		}
		if cart.SeatNumber() != " \t " {
			t.Fatalf("attempt %d: seat changed to %q", attempt, cart.SeatNumber())
		}
		assertTotal(t, cart, "5.99")
	}
}

func TestCart_CheckoutEmptyCartWithSeat(t *testing.T) {
	cart := newCart()
	cart.SetSeatNumber("C3")

	receipt, err := cart.Checkout()
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if receipt.Total.StringFixed(2) != "0.00" || len(receipt.Lines) != 0 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestCart_SetSeatNumberIsUnvalidated(t *testing.T) {
	cart := newCart()
	cart.SetSeatNumber("")
	cart.SetSeatNumber("   ")
	cart.SetSeatNumber("🎟 upper deck")

	if cart.SeatNumber() != "🎟 upper deck" {
		t.Fatalf("seat = %q", cart.SeatNumber())
	}
}

func TestCart_TotalMatchesEntriesAcrossOperations(t *testing.T) {
	cart := newCart()
	menu := []domain.MenuItem{
		item(t, 1, "Hot Dog", "5.99"),
		item(t, 2, "Cotton Candy", "4.99"),
		item(t, 3, "Popcorn", "6.99"),
		item(t, 7, "Peanuts", "4.50"),
	}

	for i := 0; i < 40; i++ {
		cart.AddItem(menu[i%len(menu)])
		if i%3 == 0 {
			if _, err := cart.RemoveItem((i * 7) % cart.Len()); err != nil {
				t.Fatalf("remove at step %d: %v", i, err)
			}
		}
		if _, err := cart.RemoveItem(cart.Len() + i); !errors.Is(err, domain.ErrInvalidIndex) {
			t.Fatalf("step %d: expected ErrInvalidIndex, got %v", i, err)
		}
		if !cart.Total().Equal(sumEntries(cart.Entries())) {
			t.Fatalf("step %d: total drifted", i)
		}
	}
}

func TestCart_EntriesReturnsCopy(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 1, "Hot Dog", "5.99"))

	entries := cart.Entries()
	entries[0].Item.Price = decimal.NewFromInt(100)

	assertTotal(t, cart, "5.99")
}

func TestCart_CloneIsIndependent(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 1, "Hot Dog", "5.99"))
	cart.SetSeatNumber("D1")

	clone := cart.Clone()
	clone.AddItem(item(t, 2, "Cotton Candy", "4.99"))
	clone.SetSeatNumber("D2")

	if cart.Len() != 1 || cart.SeatNumber() != "D1" {
		t.Fatalf("original changed: len=%d seat=%q", cart.Len(), cart.SeatNumber())
	}
	if clone.Len() != 2 || clone.SeatNumber() != "D2" {
		t.Fatalf("clone not updated: len=%d seat=%q", clone.Len(), clone.SeatNumber())
	}
}

func TestCart_ReinstateAfterCheckout(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 1, "Hot Dog", "5.99"))
	cart.AddItem(item(t, 6, "Soda", "3.99"))
	cart.SetSeatNumber("B12")
	snapshot := cart.Clone()

	if _, err := cart.Checkout(); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	cart.Reinstate(snapshot)

	if cart.Len() != 2 || cart.SeatNumber() != "B12" {
		t.Fatalf("reinstate: len=%d seat=%q", cart.Len(), cart.SeatNumber())
	}
	assertTotal(t, cart, "9.98")
}

func TestCart_ReinstateKeepsLaterWrites(t *testing.T) {
	cart := newCart()
	cart.AddItem(item(t, 1, "Hot Dog", "5.99"))
	cart.SetSeatNumber("B12")
	snapshot := cart.Clone()

	if _, err := cart.Checkout(); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	cart.AddItem(item(t, 8, "Nachos", "6.99"))
	cart.SetSeatNumber("C9")
	cart.Reinstate(snapshot)

	entries := cart.Entries()
	if len(entries) != 2 || entries[0].Item.Name != "Hot Dog" || entries[1].Item.Name != "Nachos" {
		t.Fatalf("unexpected entries after reinstate: %+v", entries)
	}
	if cart.SeatNumber() != "C9" {
		t.Fatalf("later seat must win, got %q", cart.SeatNumber())
	}
	assertTotal(t, cart, "12.98")

	cart.Reinstate(nil)
	if cart.Len() != 2 {
		t.Fatalf("nil snapshot changed cart: len=%d", cart.Len())
	}
}
