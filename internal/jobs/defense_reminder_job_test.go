package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDefenseLister struct {
	defenses []domain.Defense
}

func (f *fakeDefenseLister) ListUpcoming(ctx context.Context, from, to time.Time) ([]domain.Defense, error) {
	return f.defenses, nil
}

type fakeReminderStore struct {
	existing map[int64]bool
	created  []domain.Notification
}

func (f *fakeReminderStore) ExistsForDefense(ctx context.Context, userID int64, defenseID uuid.UUID) (bool, error) {
	return f.existing[userID], nil
}

func (f *fakeReminderStore) CreateBatch(ctx context.Context, notifications []domain.Notification) error {
	f.created = append(f.created, notifications...)
	return nil
}

type fakeGroupFetcher struct {
	groups map[int64]*backend.Group
}

func (f *fakeGroupFetcher) GetGroup(ctx context.Context, token string, groupID int64) (*backend.Group, *backend.APIError) {
	if g, ok := f.groups[groupID]; ok {
		return g, nil
	}
	return nil, &backend.APIError{Status: 404, Message: "Group not found"}
}

type fakeTokenSource struct {
	token string
	err   error
	calls int
}

func (f *fakeTokenSource) Token(ctx context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

func upcomingDefense(groupID int64) domain.Defense {
	d := domain.Defense{
		ProjectID:   10,
		GroupID:     groupID,
		Room:        "B204",
		ScheduledAt: time.Now().Add(6 * time.Hour).UTC(),
		DurationMin: 30,
		Status:      domain.DefenseStatusScheduled,
	}
	d.ID = uuid.New()
	return d
}

func TestDefenseReminderJob_SendsOncePerMember(t *testing.T) {
	defense := upcomingDefense(20)
	store := &fakeReminderStore{existing: map[int64]bool{102: true}}
	job := NewDefenseReminderJob(
		&fakeDefenseLister{defenses: []domain.Defense{defense}},
		store,
		&fakeGroupFetcher{groups: map[int64]*backend.Group{
			20: {ID: 20, ProjectID: 10, Members: []backend.GroupMember{
				{UserID: 101}, {UserID: 102}, {UserID: 103},
			}},
		}},
		&fakeTokenSource{token: "service-token"},
		24*time.Hour,
		time.Minute,
		zap.NewNop(),
	)

	job.Run()

	// 102 was already reminded, the other two get one each
	require.Len(t, store.created, 2)
	for _, n := range store.created {
		assert.Equal(t, domain.NotificationDefenseReminder, n.Kind)
		require.NotNil(t, n.DefenseID)
		assert.Equal(t, defense.ID, *n.DefenseID)
	}
	assert.Equal(t, int64(101), store.created[0].UserID)
	assert.Equal(t, int64(103), store.created[1].UserID)
}

func TestDefenseReminderJob_SkipsTokenWhenNothingUpcoming(t *testing.T) {
	tokens := &fakeTokenSource{token: "service-token"}
	job := NewDefenseReminderJob(
		&fakeDefenseLister{},
		&fakeReminderStore{},
		&fakeGroupFetcher{},
		tokens,
		24*time.Hour,
		time.Minute,
		zap.NewNop(),
	)

	job.Run()

	assert.Zero(t, tokens.calls)
}

func TestDefenseReminderJob_UnknownGroupIsSkipped(t *testing.T) {
	store := &fakeReminderStore{}
	job := NewDefenseReminderJob(
		&fakeDefenseLister{defenses: []domain.Defense{upcomingDefense(999)}},
		store,
		&fakeGroupFetcher{},
		&fakeTokenSource{token: "service-token"},
		24*time.Hour,
		time.Minute,
		zap.NewNop(),
	)

	job.Run()

	assert.Empty(t, store.created)
}

func TestScheduler_AddAndRemove(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("demo", "@every 1h", func() {}))
	assert.Error(t, s.AddJob("demo", "@every 1h", func() {}))
	assert.Contains(t, s.GetJobNames(), "demo")

	require.NoError(t, s.RemoveJob("demo"))
	assert.Error(t, s.RemoveJob("demo"))
}
