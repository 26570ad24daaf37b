package profile

import (
	"context"
	"errors"
	"testing"
)

const testAccountID = "0b8f8a5e-6c1d-4c8e-9a47-2f7a9c1d3e55"

type fakeStore struct {
	attrs  map[string]map[string]string
	setErr error
	sets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{attrs: make(map[string]map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, id string) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range f.attrs[id] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) GetMany(ctx context.Context, ids []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(ids))
	for _, id := range ids {
		out[id], _ = f.Get(ctx, id)
	}
	return out, nil
}

func (f *fakeStore) Set(_ context.Context, id string, attrs map[string]string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	if f.attrs[id] == nil {
		f.attrs[id] = make(map[string]string)
	}
	for k, v := range attrs {
		f.attrs[id][k] = v
	}
	return nil
}

func (f *fakeStore) DistinctDepartments(context.Context) ([]string, error) {
	return nil, nil
}

type fakeAccounts struct {
	hidden map[string]bool
	err    error
}

func (f *fakeAccounts) SetHidden(_ context.Context, id string, hidden bool) error {
	if f.err != nil {
		return f.err
	}
	if f.hidden == nil {
		f.hidden = make(map[string]bool)
	}
	f.hidden[id] = hidden
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateDepartments() {
	c.calls++
}

func TestService_GetProfile_MissingRecordIsEmpty(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeStore(), &fakeAccounts{})

	p, err := svc.GetProfile(context.Background(), GetProfileInput{AccountID: testAccountID})
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if p.Department != "" || p.StartDate != "" || len(p.Social) != 0 {
		t.Fatalf("expected empty profile, got %+v", p)
	}
}

func TestService_GetProfile_InvalidID(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeStore(), &fakeAccounts{})

	if _, err := svc.GetProfile(context.Background(), GetProfileInput{AccountID: " "}); !errors.Is(err, ErrInvalidAccountID) {
		t.Fatalf("expected ErrInvalidAccountID, got %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), GetProfileInput{AccountID: "42"}); !errors.Is(err, ErrInvalidAccountID) {
		t.Fatalf("expected ErrInvalidAccountID for non-uuid, got %v", err)
	}
}

func TestService_UpdateProfile_PartialUpdate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.attrs[testAccountID] = map[string]string{KeyJobTitle: "Engineer", KeyPhone: "123"}
	inv := &countingInvalidator{}
	svc := NewService(store, &fakeAccounts{}, WithInvalidator(inv))

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		AccountID: testAccountID,
		Fields:    map[string]string{KeyJobTitle: " Staff <i>Engineer</i> ", KeyStartDate: "2021-07-15"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	if updated.JobTitle != "Staff Engineer" {
		t.Errorf("unexpected job title: %q", updated.JobTitle)
	}
	if updated.StartDate != "2021-07" {
		t.Errorf("unexpected start date: %q", updated.StartDate)
	}
	if updated.Phone != "123" {
		t.Errorf("unspecified key must be untouched, got phone %q", updated.Phone)
	}
	if inv.calls != 0 {
		t.Errorf("expected no invalidation without department write, got %d", inv.calls)
	}
}

func TestService_UpdateProfile_DepartmentInvalidatesCache(t *testing.T) {
	t.Parallel()

	inv := &countingInvalidator{}
	svc := NewService(newFakeStore(), &fakeAccounts{}, WithInvalidator(inv))

	if _, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		AccountID: testAccountID,
		Fields:    map[string]string{KeyDepartment: "Sales"},
	}); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if inv.calls != 1 {
		t.Fatalf("expected one invalidation, got %d", inv.calls)
	}
}

func TestService_UpdateProfile_Validation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, &fakeAccounts{})
	ctx := context.Background()

	if _, err := svc.UpdateProfile(ctx, UpdateProfileInput{AccountID: testAccountID, Fields: map[string]string{"salary": "1"}}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, UpdateProfileInput{AccountID: testAccountID, Fields: map[string]string{KeyPhotoURL: "ftp://x"}}); !errors.Is(err, ErrInvalidFieldValue) {
		t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, UpdateProfileInput{AccountID: testAccountID, HiddenSocialSet: true, HiddenSocial: []Platform{"myspace"}}); !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, UpdateProfileInput{AccountID: testAccountID}); !errors.Is(err, ErrNothingToUpdate) {
		t.Fatalf("expected ErrNothingToUpdate, got %v", err)
	}
	if store.sets != 0 {
		t.Fatalf("invalid input must not reach the store, got %d writes", store.sets)
	}
}

func TestService_UpdateProfile_HiddenSocial(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeStore(), &fakeAccounts{})

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		AccountID:       testAccountID,
		HiddenSocialSet: true,
		HiddenSocial:    []Platform{PlatformTikTok, PlatformDiscord},
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if !updated.IsSocialHidden(PlatformTikTok) || !updated.IsSocialHidden(PlatformDiscord) {
		t.Fatalf("expected tiktok and discord hidden, got %v", updated.HiddenSocial)
	}
}

func TestService_UpdateProfile_StoreErrorSkipsInvalidation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.setErr = errors.New("boom")
	inv := &countingInvalidator{}
	svc := NewService(store, &fakeAccounts{}, WithInvalidator(inv))

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		AccountID: testAccountID,
		Fields:    map[string]string{KeyDepartment: "Sales"},
	})
	if err == nil {
		t.Fatal("expected store error")
	}
	if inv.calls != 0 {
		t.Fatalf("expected no invalidation on failed write, got %d", inv.calls)
	}
}

func TestService_SetVisibility(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccounts{}
	svc := NewService(newFakeStore(), accounts)

	if err := svc.SetVisibility(context.Background(), SetVisibilityInput{AccountID: testAccountID, Hidden: true}); err != nil {
		t.Fatalf("SetVisibility returned error: %v", err)
	}
	if !accounts.hidden[testAccountID] {
		t.Fatal("expected account to be hidden")
	}

	accounts.err = ErrAccountNotFound
	if err := svc.SetVisibility(context.Background(), SetVisibilityInput{AccountID: testAccountID}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
