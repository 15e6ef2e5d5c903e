package member

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunknudsen/ghost-join/pkg/ghost"
	"github.com/sunknudsen/ghost-join/pkg/stripeapi"
)

// fakeStore is an in-memory Store keyed by email, recording every call.
type fakeStore struct {
	mu      sync.Mutex
	members map[string]*ghost.Member
	nextID  int
	calls   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[string]*ghost.Member)}
}

func (s *fakeStore) MembersByEmail(_ context.Context, email string) ([]*ghost.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "lookup")
	if m, ok := s.members[email]; ok {
		copied := *m
		return []*ghost.Member{&copied}, nil
	}
	return nil, nil
}

func (s *fakeStore) AddMember(_ context.Context, member *ghost.Member, sendEmail bool) (*ghost.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("add send_email=%t", sendEmail))
	if _, ok := s.members[member.Email]; ok {
		return nil, fmt.Errorf("duplicate member %s", member.Email)
	}
	s.nextID++
	created := *member
	created.ID = fmt.Sprintf("m_%d", s.nextID)
	s.members[member.Email] = &created
	return &created, nil
}

func (s *fakeStore) EditMember(_ context.Context, id string, member *ghost.Member) (*ghost.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "edit")
	for _, existing := range s.members {
		if existing.ID == id {
			existing.Labels = member.Labels
			existing.Note = member.Note
			copied := *existing
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no member %s", id)
}

func (s *fakeStore) DeleteMember(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete")
	for email, existing := range s.members {
		if existing.ID == id {
			delete(s.members, email)
			return nil
		}
	}
	return fmt.Errorf("no member %s", id)
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// conflictStore returns several records for every email.
type conflictStore struct {
	fakeStore
}

func (s *conflictStore) MembersByEmail(_ context.Context, email string) ([]*ghost.Member, error) {
	return []*ghost.Member{
		{ID: "m_1", Email: email},
		{ID: "m_2", Email: email},
	}, nil
}

const testProductID = "prod_membership"

func newTestReconciler(t *testing.T, store Store) *Reconciler {
	t.Helper()

	r, err := New(Config{Store: store, ProductID: testProductID})
	require.NoError(t, err)
	return r
}

func testSubscription() *stripeapi.Subscription {
	return &stripeapi.Subscription{
		ID:                 "sub_1",
		Status:             stripeapi.StatusActive,
		CurrentPeriodStart: 1696118400,
		CurrentPeriodEnd:   1698796800,
		Plan:               stripeapi.Plan{Amount: 500, Product: testProductID},
		Customer:           stripeapi.Customer{ID: "cus_1", Email: "jane@example.com", Name: "Jane Doe"},
	}
}

func TestApply_ActivateCreatesMember(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)

	outcome, err := r.Apply(context.Background(), IntentActivate, testSubscription())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	created := store.members["jane@example.com"]
	require.NotNil(t, created)
	assert.Equal(t, "Jane Doe", created.Name)
	assert.Equal(t, []ghost.Label{{Name: LabelStripe}}, created.Labels)
	assert.Contains(t, store.calls, "add send_email=true")

	note, err := ghost.ParseNote(created.Note)
	require.NoError(t, err)
	assert.Equal(t, "cus_1", note.Stripe.Customer)
	assert.Equal(t, "sub_1", note.Stripe.Subscription)
	assert.False(t, note.Stripe.PendingDeletion)
	assert.Equal(t, "2023-10-01", note.Stripe.Starts)
	assert.Equal(t, "2023-11-01", note.Stripe.Ends)
}

func TestApply_ActivateWithPendingDeletion(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)

	sub := testSubscription()
	sub.CancelAtPeriodEnd = true
	outcome, err := r.Apply(context.Background(), IntentActivate, sub)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	created := store.members["jane@example.com"]
	require.NotNil(t, created)
	assert.Equal(t, []ghost.Label{
		{Name: LabelStripe},
		{Name: LabelPendingDeletion},
	}, created.Labels)
}

func TestApply_ActivateTwiceUpdatesInPlace(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)
	ctx := context.Background()

	outcome, err := r.Apply(ctx, IntentActivate, testSubscription())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	// Same event delivered again: the member is re-synced, not duplicated.
	sub := testSubscription()
	sub.CancelAtPeriodEnd = true
	sub.CurrentPeriodEnd = 1701388800
	outcome, err = r.Apply(ctx, IntentActivate, sub)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Len(t, store.members, 1)

	updated := store.members["jane@example.com"]
	note, err := ghost.ParseNote(updated.Note)
	require.NoError(t, err)
	assert.True(t, note.Stripe.PendingDeletion)
	assert.Equal(t, "2023-12-01", note.Stripe.Ends)
	// Linkage ids are preserved from the original record.
	assert.Equal(t, "cus_1", note.Stripe.Customer)
	assert.Equal(t, "sub_1", note.Stripe.Subscription)
}

func TestApply_UpdatePreservesRecordedLinkage(t *testing.T) {
	store := newFakeStore()
	store.members["jane@example.com"] = &ghost.Member{
		ID:    "m_1",
		Email: "jane@example.com",
		Note:  `{"stripe":{"customer":"cus_original","subscription":"sub_original","pendingDeletion":false,"starts":"2023-01-01","ends":"2023-02-01"}}`,
	}
	r := newTestReconciler(t, store)

	outcome, err := r.Apply(context.Background(), IntentActivate, testSubscription())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	note, err := ghost.ParseNote(store.members["jane@example.com"].Note)
	require.NoError(t, err)
	assert.Equal(t, "cus_original", note.Stripe.Customer)
	assert.Equal(t, "sub_original", note.Stripe.Subscription)
	assert.Equal(t, "2023-10-01", note.Stripe.Starts)
	assert.Equal(t, "2023-11-01", note.Stripe.Ends)
}

func TestApply_ActivateFailsOnInvalidNote(t *testing.T) {
	store := newFakeStore()
	store.members["jane@example.com"] = &ghost.Member{
		ID:    "m_1",
		Email: "jane@example.com",
		Note:  "imported by hand",
	}
	r := newTestReconciler(t, store)

	_, err := r.Apply(context.Background(), IntentActivate, testSubscription())
	require.Error(t, err)

	var linkageErr *ghost.LinkageError
	assert.ErrorAs(t, err, &linkageErr)
	assert.NotContains(t, store.calls, "edit")
}

func TestApply_DeactivateDeletesMember(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)
	ctx := context.Background()

	_, err := r.Apply(ctx, IntentActivate, testSubscription())
	require.NoError(t, err)

	outcome, err := r.Apply(ctx, IntentDeactivate, testSubscription())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, outcome)
	assert.Empty(t, store.members)
}

func TestApply_DeactivateAbsentMemberIsNoop(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)

	outcome, err := r.Apply(context.Background(), IntentDeactivate, testSubscription())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
}

func TestApply_ProductMismatchSkipsStore(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)

	sub := testSubscription()
	sub.Plan.Product = "prod_other"
	_, err := r.Apply(context.Background(), IntentActivate, sub)
	assert.ErrorIs(t, err, ErrProductMismatch)
	assert.Zero(t, store.callCount())
}

func TestApply_IgnoreIntentSkipsStore(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)

	outcome, err := r.Apply(context.Background(), IntentIgnore, testSubscription())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Zero(t, store.callCount())
}

func TestApply_ActivateConflict(t *testing.T) {
	r := newTestReconciler(t, &conflictStore{})

	_, err := r.Apply(context.Background(), IntentActivate, testSubscription())
	assert.ErrorIs(t, err, ErrMemberConflict)
}

func TestApply_DeactivateConflictIsNoop(t *testing.T) {
	r := newTestReconciler(t, &conflictStore{})

	outcome, err := r.Apply(context.Background(), IntentDeactivate, testSubscription())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
}

func TestApply_LowercaseEmails(t *testing.T) {
	store := newFakeStore()
	r, err := New(Config{Store: store, ProductID: testProductID, LowercaseEmails: true})
	require.NoError(t, err)

	sub := testSubscription()
	sub.Customer.Email = "Jane@Example.com"
	_, err = r.Apply(context.Background(), IntentActivate, sub)
	require.NoError(t, err)
	assert.Contains(t, store.members, "jane@example.com")
}

func TestApply_ConcurrentActivatesCreateOneMember(t *testing.T) {
	store := newFakeStore()
	r := newTestReconciler(t, store)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Apply(context.Background(), IntentActivate, testSubscription())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, store.members, 1)
}

func TestNew_RequiredConfig(t *testing.T) {
	_, err := New(Config{ProductID: testProductID})
	assert.Error(t, err)

	_, err = New(Config{Store: newFakeStore()})
	assert.Error(t, err)
}
