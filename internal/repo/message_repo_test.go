package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-booking-backend/internal/domain"
)

func TestRecentMessages_OrderLimitAndSince(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2025, 12, 19, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		role := domain.RoleCustomer
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		if _, err := CreateMessage(ctx, db, "c1", "Ana", role, fmt.Sprintf("m%02d", i), t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := CreateMessage(ctx, db, "c2", "", domain.RoleCustomer, "other", t0); err != nil {
		t.Fatalf("create other: %v", err)
	}

	got, err := RecentMessages(ctx, db, "c1", time.Time{}, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 10 || got[0].Content != "m02" || got[9].Content != "m11" {
		t.Fatalf("unexpected window: first=%q last=%q len=%d", got[0].Content, got[len(got)-1].Content, len(got))
	}

	got, err = RecentMessages(ctx, db, "c1", t0.Add(9*time.Minute), 10)
	if err != nil || len(got) != 3 || got[0].Content != "m09" {
		t.Fatalf("since filter: %v %v", got, err)
	}

	n, err := CountMessagesBetween(ctx, db, t0, t0.Add(5*time.Minute))
	if err != nil || n != 6 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestRecentMessages_SameTimestampKeepsInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2025, 12, 19, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		if _, err := CreateMessage(ctx, db, "c1", "", domain.RoleCustomer, fmt.Sprintf("m%d", i), at); err != nil {
			t.Fatal(err)
		}
	}
	got, err := RecentMessages(ctx, db, "c1", time.Time{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range got {
		if m.Content != fmt.Sprintf("m%d", i) {
			t.Fatalf("position %d holds %q", i, m.Content)
		}
	}
}
