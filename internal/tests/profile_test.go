package tests

import (
	"context"
	"testing"
	"time"

	"parkwise/internal/domain"
	"parkwise/internal/service"
)

// ──────────────────────────────────────────────
// 4. PROFILE STORE EDGE CASES
// ──────────────────────────────────────────────

func TestProfile_CompletionCountsRequiredFieldsOnly(t *testing.T) {
	t.Parallel()

	// 3 of the 10 required fields set: truncates to 30.
	profile := domain.UserProfile{
		Name:  "Asha",
		Email: "asha@example.com",
		Phone: "+911234567890",
		// Optional data must not move the needle.
		WalletBalance: 250,
		PrefersEV:     true,
		Vehicle:       "sedan",
	}

	if got := profile.Completion(); got != 30 {
		t.Errorf("expected 30, got %d", got)
	}

	profile.CarName = "i20"
	if got := profile.Completion(); got != 40 {
		t.Errorf("expected 40, got %d", got)
	}
}

func TestProfile_CreateDefaultIsIdempotent(t *testing.T) {
	t.Parallel()

	profileRepo := NewMockProfileRepository()
	svc := service.NewProfileService(profileRepo)

	created, err := svc.CreateDefault(context.Background(), "user-1", "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ProfileImageURL == "" {
		t.Error("expected a default profile image")
	}
	// Name, email and the default image: 3 of 10.
	if created.CompletionPercent != 30 {
		t.Errorf("expected completion 30, got %d", created.CompletionPercent)
	}

	// A filled profile survives a repeated create.
	full := *created
	full.Phone = "+911234567890"
	if _, err := svc.Replace(context.Background(), &full); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, err := svc.CreateDefault(context.Background(), "user-1", "Other", "other@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Name != "Asha" || again.Phone != "+911234567890" {
		t.Error("expected repeated create to keep the stored profile")
	}
}

func TestProfile_ReplaceRecomputesCompletion(t *testing.T) {
	t.Parallel()

	profileRepo := NewMockProfileRepository()
	svc := service.NewProfileService(profileRepo)

	profile, err := svc.Replace(context.Background(), &domain.UserProfile{
		UserID: "user-1",
		Name:   "Asha",
		Email:  "asha@example.com",
		// Caller-supplied completion is never trusted.
		CompletionPercent: 99,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Name, email and the backfilled default image: 3 of 10.
	if profile.CompletionPercent != 30 {
		t.Errorf("expected completion 30, got %d", profile.CompletionPercent)
	}
}

func TestProfile_SubscribeDeliversCurrentThenChanges(t *testing.T) {
	t.Parallel()

	profileRepo := NewMockProfileRepository()
	svc := service.NewProfileService(profileRepo)

	if _, err := svc.CreateDefault(context.Background(), "user-1", "Asha", "asha@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := svc.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sub.Cancel()

	select {
	case current := <-sub.Updates:
		if current.Name != "Asha" {
			t.Errorf("expected current profile first, got name %s", current.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for current profile")
	}

	updated := domain.UserProfile{UserID: "user-1", Name: "Asha K", Email: "asha@example.com"}
	if _, err := svc.Replace(context.Background(), &updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case change := <-sub.Updates:
		if change.Name != "Asha K" {
			t.Errorf("expected updated profile, got name %s", change.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestProfile_CancelStopsDelivery(t *testing.T) {
	t.Parallel()

	profileRepo := NewMockProfileRepository()
	svc := service.NewProfileService(profileRepo)

	if _, err := svc.CreateDefault(context.Background(), "user-1", "Asha", "asha@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := svc.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-sub.Updates // drain the current value

	sub.Cancel()
	// Cancel twice is safe.
	sub.Cancel()

	if _, err := svc.Replace(context.Background(), &domain.UserProfile{UserID: "user-1", Name: "Changed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The channel is closed and empty: no post-cancel delivery.
	if v, ok := <-sub.Updates; ok {
		t.Errorf("received update after cancel: %+v", v)
	}
}

func TestProfile_SubscribeNeverMissesConcurrentWrite(t *testing.T) {
	t.Parallel()

	// A write racing with subscribe must end up delivered either as the
	// subscriber's current value or as a subsequent update.
	for i := 0; i < 50; i++ {
		profileRepo := NewMockProfileRepository()
		svc := service.NewProfileService(profileRepo)

		if _, err := svc.Replace(context.Background(), &domain.UserProfile{UserID: "user-1", Name: "old"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			if _, err := svc.Replace(context.Background(), &domain.UserProfile{UserID: "user-1", Name: "new"}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()

		sub, err := svc.Subscribe(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		<-done

		var last domain.UserProfile
	drain:
		for {
			select {
			case v := <-sub.Updates:
				last = v
			case <-time.After(50 * time.Millisecond):
				break drain
			}
		}
		sub.Cancel()

		if last.Name != "new" {
			t.Fatalf("iteration %d: expected final delivery of the racing write, got %q", i, last.Name)
		}
	}
}

func TestProfile_SubscribeBeforeProfileExists(t *testing.T) {
	t.Parallel()

	profileRepo := NewMockProfileRepository()
	svc := service.NewProfileService(profileRepo)

	sub, err := svc.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sub.Cancel()

	// No current value to deliver yet.
	select {
	case v := <-sub.Updates:
		t.Errorf("unexpected delivery before profile exists: %+v", v)
	default:
	}

	if _, err := svc.Replace(context.Background(), &domain.UserProfile{UserID: "user-1", Name: "Asha"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case change := <-sub.Updates:
		if change.Name != "Asha" {
			t.Errorf("expected first write, got name %s", change.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first write")
	}
}
