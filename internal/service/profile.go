package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"parkwise/internal/domain"
	"parkwise/internal/repository"
)

const defaultProfileImageURL = "https://parkwise.example.com/assets/default-avatar.png"

const subscriptionBuffer = 16

// ProfileSubscription is a live feed of one user's profile. Updates
// holds the current profile immediately on subscribe and every change
// afterwards, until Cancel.
type ProfileSubscription struct {
	Updates chan domain.UserProfile

	cancel func()
	once   sync.Once
}

// Cancel detaches the subscription. No values are delivered after
// Cancel returns; the channel is closed.
func (s *ProfileSubscription) Cancel() {
	s.once.Do(s.cancel)
}

// ProfileService owns user profiles and fans updates out to
// subscribers. Completion percentage is always derived on read and
// write, never trusted from the caller.
type ProfileService struct {
	profileRepo repository.ProfileRepository

	mu   sync.Mutex
	subs map[string]map[*ProfileSubscription]struct{}
}

// NewProfileService creates a ProfileService.
func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		subs:        make(map[string]map[*ProfileSubscription]struct{}),
	}
}

// CreateDefault provisions a starter profile for a new user. Calling
// it again for an existing user leaves the stored profile untouched
// and returns it.
func (s *ProfileService) CreateDefault(ctx context.Context, userID, name, email string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	existing, err := s.profileRepo.GetByID(ctx, userID)
	if err == nil {
		return s.withCompletion(existing), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	profile := &domain.UserProfile{
		UserID:          userID,
		Name:            name,
		Email:           email,
		ProfileImageURL: defaultProfileImageURL,
		Status:          "active",
		Language:        "en",
	}
	profile.CompletionPercent = profile.Completion()

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	// Create is a no-op when a concurrent call won; the stored row is
	// authoritative either way.
	stored, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withCompletion(stored), nil
}

// Get retrieves a profile with its completion percentage derived.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withCompletion(profile), nil
}

// Replace overwrites a user's profile wholesale and notifies
// subscribers. The completion percentage is recomputed from the new
// field values.
func (s *ProfileService) Replace(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	if profile == nil || profile.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if profile.ProfileImageURL == "" {
		profile.ProfileImageURL = defaultProfileImageURL
	}
	profile.CompletionPercent = profile.Completion()

	// Writes are upserts: a first write for a new user creates the row.
	err := s.profileRepo.Replace(ctx, profile)
	if errors.Is(err, repository.ErrNotFound) {
		err = s.profileRepo.Create(ctx, profile)
	}
	if err != nil {
		return nil, err
	}

	s.publish(*profile)
	return profile, nil
}

// Subscribe opens a live feed of one user's profile. The current value
// is delivered immediately when the profile exists; subsequent changes
// follow. Slow consumers drop intermediate values rather than block
// writers.
func (s *ProfileService) Subscribe(ctx context.Context, userID string) (*ProfileSubscription, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	sub := &ProfileSubscription{
		Updates: make(chan domain.UserProfile, subscriptionBuffer),
	}
	sub.cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.subs[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(s.subs, userID)
			}
		}
		close(sub.Updates)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Read the current value under the lock that orders publishes: a
	// write racing with subscribe is either visible here or delivered
	// through the registration below, never lost.
	current, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	set, ok := s.subs[userID]
	if !ok {
		set = make(map[*ProfileSubscription]struct{})
		s.subs[userID] = set
	}
	set[sub] = struct{}{}
	if current != nil {
		sub.Updates <- *s.withCompletion(current)
	}

	return sub, nil
}

// publish fans a profile change out to its subscribers. Holding the
// mutex for the sends keeps delivery ordered with Cancel: a cancelled
// subscription never receives another value.
func (s *ProfileService) publish(profile domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs[profile.UserID] {
		select {
		case sub.Updates <- profile:
		default:
			log.Printf("profile: dropping update for slow subscriber (user=%s)", profile.UserID)
		}
	}
}

func (s *ProfileService) withCompletion(profile *domain.UserProfile) *domain.UserProfile {
	profile.CompletionPercent = profile.Completion()
	return profile
}
