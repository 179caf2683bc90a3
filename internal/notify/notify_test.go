package notify

import (
	"testing"

	"github.com/grupomess/erp/internal/models"
)

func TestFeed_SinceAndLimit(t *testing.T) {
	f := NewFeed(3)
	f.Toast("one")
	f.Toast("two")
	f.Dialog("Saved", "three")
	f.Toast("four")

	all := f.Since(0)
	if len(all) != 3 {
		t.Fatalf("expected 3 retained notifications, got %d", len(all))
	}
	if all[0].Message != "two" {
		t.Errorf("oldest retained = %q, want %q", all[0].Message, "two")
	}

	newer := f.Since(all[1].ID)
	if len(newer) != 1 || newer[0].Message != "four" {
		t.Errorf("Since(%d) = %+v, want only \"four\"", all[1].ID, newer)
	}

	last, ok := f.Last()
	if !ok || last.Kind != models.NotificationToast || last.Message != "four" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestFeed_DialogCarriesTitle(t *testing.T) {
	f := NewFeed(0)
	f.Dialog("Photos saved", "Photos were saved in the folder Downloads/F1")

	last, ok := f.Last()
	if !ok {
		t.Fatal("expected a notification")
	}
	if last.Kind != models.NotificationDialog || last.Title != "Photos saved" {
		t.Errorf("unexpected dialog: %+v", last)
	}
}
