package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"ypg-admin-api/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

var testNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newDonation(receipt string, method models.PaymentMethod, status models.DonationStatus) models.Donation {
	return models.Donation{
		DonorName:     "Ama Mensah",
		Email:         "ama@example.com",
		Amount:        decimal.RequireFromString("150.50"),
		Currency:      "GHS",
		PaymentMethod: method,
		Status:        status,
		Purpose:       models.PurposeWelfare,
		ReceiptCode:   receipt,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

func TestDonation_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	d := newDonation("YPG-00000001", models.MethodMomo, models.StatusPending)
	if err := db.InsertDonation(ctx, &d); err != nil {
		t.Fatalf("InsertDonation failed: %v", err)
	}
	if d.ID == 0 {
		t.Fatal("Expected ID to be set")
	}

	got, err := db.GetDonation(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDonation failed: %v", err)
	}
	if !got.Amount.Equal(d.Amount) || got.ReceiptCode != d.ReceiptCode || !got.CreatedAt.Equal(testNow) {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if got.VerifiedBy != nil || got.VerifiedAt != nil {
		t.Error("Expected no verification stamp")
	}

	if _, err := db.GetDonation(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDonation_DuplicateReceipt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := newDonation("YPG-ABCDEF01", models.MethodCash, models.StatusPending)
	b := newDonation("YPG-ABCDEF01", models.MethodCash, models.StatusPending)

	if err := db.InsertDonation(ctx, &a); err != nil {
		t.Fatalf("InsertDonation failed: %v", err)
	}
	if err := db.InsertDonation(ctx, &b); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestDonation_ConditionalStatusUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	d := newDonation("YPG-00000002", models.MethodMomo, models.StatusPending)
	db.InsertDonation(ctx, &d)

	verified := d
	verified.MarkVerified("admin", testNow.Add(time.Hour))
	if err := db.UpdateDonationStatus(ctx, verified, models.StatusPending); err != nil {
		t.Fatalf("UpdateDonationStatus failed: %v", err)
	}

	cancelled := d
	cancelled.Status = models.StatusCancelled
	if err := db.UpdateDonationStatus(ctx, cancelled, models.StatusPending); !errors.Is(err, ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict, got %v", err)
	}

	got, _ := db.GetDonation(ctx, d.ID)
	if got.Status != models.StatusVerified || got.VerifiedBy == nil || *got.VerifiedBy != "admin" {
		t.Errorf("Expected verified by admin, got %+v", got)
	}

	missing := d
	missing.ID = 404
	if err := db.UpdateDonationStatus(ctx, missing, models.StatusPending); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDonation_ListFiltersAndAnalytics(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows := []models.Donation{
		newDonation("YPG-0000000A", models.MethodCash, models.StatusVerified),
		newDonation("YPG-0000000B", models.MethodMomo, models.StatusPending),
		newDonation("YPG-0000000C", models.MethodMomo, models.StatusFailed),
	}
	rows[1].Amount = decimal.RequireFromString("49.50")
	rows[2].Purpose = models.PurposeBuilding
	for i := range rows {
		rows[i].CreatedAt = testNow.Add(time.Duration(i) * time.Minute)
		if err := db.InsertDonation(ctx, &rows[i]); err != nil {
			t.Fatalf("InsertDonation failed: %v", err)
		}
	}

	all, err := db.ListDonations(ctx, models.DonationFilter{})
	if err != nil {
		t.Fatalf("ListDonations failed: %v", err)
	}
	if len(all) != 3 || all[0].ReceiptCode != "YPG-0000000C" {
		t.Errorf("Expected newest first, got %d rows starting with %s", len(all), all[0].ReceiptCode)
	}

	momo, _ := db.ListDonations(ctx, models.DonationFilter{PaymentMethod: "momo", Purpose: "welfare"})
	if len(momo) != 1 || momo[0].ReceiptCode != "YPG-0000000B" {
		t.Errorf("Unexpected filtered rows %+v", momo)
	}

	a := models.SummarizeDonations(all)
	if a.TotalCount != 3 || !a.TotalAmount.Equal(decimal.RequireFromString("350.50")) {
		t.Errorf("Unexpected totals %+v", a)
	}
	if a.VerifiedCount != 1 || !a.VerifiedAmount.Equal(decimal.RequireFromString("150.50")) {
		t.Errorf("Unexpected verified totals %+v", a)
	}
	if a.PendingCount != 1 {
		t.Errorf("Expected 1 pending, got %d", a.PendingCount)
	}
}

func TestDonation_Delete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	d := newDonation("YPG-00000003", models.MethodBank, models.StatusVerified)
	db.InsertDonation(ctx, &d)

	if err := db.DeleteDonation(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDonation failed: %v", err)
	}
	if err := db.DeleteDonation(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func newPost(slug string, published bool) models.BlogPost {
	return models.BlogPost{
		Title:       "Youth Rally",
		Slug:        slug,
		Content:     "Body",
		IsPublished: published,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

func TestBlog_SlugUniqueness(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := newPost("youth-rally", true)
	b := newPost("youth-rally", true)

	if err := db.InsertBlogPost(ctx, &a); err != nil {
		t.Fatalf("InsertBlogPost failed: %v", err)
	}
	if err := db.InsertBlogPost(ctx, &b); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	exists, err := db.SlugExists(ctx, "youth-rally")
	if err != nil || !exists {
		t.Errorf("Expected slug to exist, got %v (%v)", exists, err)
	}
}

func TestBlog_IncrementViews(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	live := newPost("live", true)
	draft := newPost("draft", false)
	db.InsertBlogPost(ctx, &live)
	db.InsertBlogPost(ctx, &draft)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.IncrementPostViews(ctx, "live"); err != nil {
				t.Errorf("IncrementPostViews failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := db.GetPostBySlug(ctx, "live")
	if got.Views != 20 {
		t.Errorf("Expected 20 views, got %d", got.Views)
	}

	if _, err := db.IncrementPostViews(ctx, "draft"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for draft, got %v", err)
	}
	got, _ = db.GetPostBySlug(ctx, "draft")
	if got.Views != 0 {
		t.Errorf("Expected draft views untouched, got %d", got.Views)
	}
}

func TestBlog_SoftDeleteAndRestore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := newPost("camp", true)
	db.InsertBlogPost(ctx, &p)

	if err := db.SoftDeleteBlogPost(ctx, "camp", testNow); err != nil {
		t.Fatalf("SoftDeleteBlogPost failed: %v", err)
	}

	posts, _ := db.ListPublishedPosts(ctx)
	if len(posts) != 0 {
		t.Errorf("Expected deleted post hidden, got %d posts", len(posts))
	}
	if _, err := db.IncrementPostViews(ctx, "camp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for deleted post, got %v", err)
	}
	if err := db.SoftDeleteBlogPost(ctx, "camp", testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected second delete to fail, got %v", err)
	}

	if err := db.RestoreBlogPost(ctx, "camp", testNow); err != nil {
		t.Fatalf("RestoreBlogPost failed: %v", err)
	}
	posts, _ = db.ListPublishedPosts(ctx)
	if len(posts) != 1 {
		t.Errorf("Expected restored post listed, got %d posts", len(posts))
	}
}

func TestTeam_Ordering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	members := []models.TeamMember{
		{Name: "Yaw", Position: "Treasurer", PositionOrder: 6, IsActive: true},
		{Name: "Esi", Position: "President", PositionOrder: 1, IsActive: true},
		{Name: "Abena", Position: "Member", PositionOrder: 999, IsActive: true},
		{Name: "Kojo", Position: "Secretary", PositionOrder: 3, IsActive: false},
	}
	for i := range members {
		members[i].CreatedAt, members[i].UpdatedAt = testNow, testNow
		if err := db.InsertTeamMember(ctx, &members[i]); err != nil {
			t.Fatalf("InsertTeamMember failed: %v", err)
		}
	}

	active, err := db.ListTeamMembers(ctx, models.TeamFilter{})
	if err != nil {
		t.Fatalf("ListTeamMembers failed: %v", err)
	}
	want := []string{"Esi", "Yaw", "Abena"}
	if len(active) != len(want) {
		t.Fatalf("Expected %d active members, got %d", len(want), len(active))
	}
	for i, name := range want {
		if active[i].Name != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, active[i].Name)
		}
	}

	all, _ := db.ListTeamMembers(ctx, models.TeamFilter{IncludeInactive: true})
	if len(all) != 4 {
		t.Errorf("Expected 4 members including inactive, got %d", len(all))
	}
}

func TestSupervisor_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s, err := db.UpsertSupervisor(ctx, "admin", "hash-1", testNow)
	if err != nil {
		t.Fatalf("UpsertSupervisor failed: %v", err)
	}

	again, err := db.UpsertSupervisor(ctx, "admin", "hash-2", testNow)
	if err != nil {
		t.Fatalf("UpsertSupervisor failed: %v", err)
	}
	if again.ID != s.ID || again.PasswordHash != "hash-2" {
		t.Errorf("Expected password reset on the same row, got %+v", again)
	}

	if err := db.RecordSupervisorLogin(ctx, s.ID, "203.0.113.5", testNow); err != nil {
		t.Fatalf("RecordSupervisorLogin failed: %v", err)
	}
	got, _ := db.GetSupervisorByUsername(ctx, "admin")
	if got.LastLoginIP != "203.0.113.5" || got.LastLoginAt == nil {
		t.Errorf("Expected login recorded, got %+v", got)
	}

	other, _ := db.UpsertSupervisor(ctx, "deputy", "hash-3", testNow)
	if err := db.UpdateSupervisorCredentials(ctx, other.ID, "admin", "hash-4", testNow); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for taken username, got %v", err)
	}
}
