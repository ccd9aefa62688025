package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"go.uber.org/zap"
)

// DefenseReminderJobName is the name of the defense reminder job
const DefenseReminderJobName = "defense_reminder"

// DefenseLister loads defenses scheduled inside a time window.
type DefenseLister interface {
	ListUpcoming(ctx context.Context, from, to time.Time) ([]domain.Defense, error)
}

// ReminderStore records reminder notifications and answers whether a user
// was already reminded about a defense.
type ReminderStore interface {
	ExistsForDefense(ctx context.Context, userID int64, defenseID uuid.UUID) (bool, error)
	CreateBatch(ctx context.Context, notifications []domain.Notification) error
}

// GroupFetcher resolves a group's membership from the upstream backend.
type GroupFetcher interface {
	GetGroup(ctx context.Context, token string, groupID int64) (*backend.Group, *backend.APIError)
}

// TokenSource provides a valid service-account token for upstream calls
// made outside any user request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// DefenseReminderJob notifies group members about defenses starting within
// the reminder window. Each member is reminded at most once per defense.
type DefenseReminderJob struct {
	defenses      DefenseLister
	notifications ReminderStore
	groups        GroupFetcher
	tokens        TokenSource
	window        time.Duration
	timeout       time.Duration
	logger        *zap.Logger
}

// NewDefenseReminderJob creates a new defense reminder job.
func NewDefenseReminderJob(
	defenses DefenseLister,
	notifications ReminderStore,
	groups GroupFetcher,
	tokens TokenSource,
	window time.Duration,
	timeout time.Duration,
	logger *zap.Logger,
) *DefenseReminderJob {
	return &DefenseReminderJob{
		defenses:      defenses,
		notifications: notifications,
		groups:        groups,
		tokens:        tokens,
		window:        window,
		timeout:       timeout,
		logger:        logger,
	}
}

// Run executes one reminder pass. Called by the scheduler.
func (j *DefenseReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	now := start.UTC()

	upcoming, err := j.defenses.ListUpcoming(ctx, now, now.Add(j.window))
	if err != nil {
		j.logger.Error("defense reminder: failed to list upcoming defenses", zap.Error(err))
		return
	}
	if len(upcoming) == 0 {
		return
	}

	token, err := j.tokens.Token(ctx)
	if err != nil {
		j.logger.Error("defense reminder: no service session", zap.Error(err))
		return
	}

	var sent, skipped int
	for i := range upcoming {
		s, k := j.remindGroup(ctx, token, &upcoming[i])
		sent += s
		skipped += k
	}

	j.logger.Info("defense reminder pass completed",
		zap.Int("defenses", len(upcoming)),
		zap.Int("reminders_sent", sent),
		zap.Int("already_reminded", skipped),
		zap.Duration("duration", time.Since(start)),
	)
}

func (j *DefenseReminderJob) remindGroup(ctx context.Context, token string, defense *domain.Defense) (sent, skipped int) {
	group, apiErr := j.groups.GetGroup(ctx, token, defense.GroupID)
	if apiErr != nil {
		j.logger.Warn("defense reminder: failed to fetch group",
			zap.Int64("group_id", defense.GroupID),
			zap.String("defense_id", defense.ID.String()),
			zap.Int("upstream_status", apiErr.Status),
			zap.String("upstream_message", apiErr.Message),
		)
		return 0, 0
	}

	defenseID := defense.ID
	message := fmt.Sprintf("Your defense starts on %s in room %s",
		defense.ScheduledAt.Format("2006-01-02 15:04"), defense.Room)

	var pending []domain.Notification
	for _, member := range group.Members {
		exists, err := j.notifications.ExistsForDefense(ctx, member.UserID, defenseID)
		if err != nil {
			j.logger.Warn("defense reminder: dedup check failed",
				zap.Int64("user_id", member.UserID),
				zap.Error(err),
			)
			continue
		}
		if exists {
			skipped++
			continue
		}
		pending = append(pending, domain.Notification{
			UserID:    member.UserID,
			Kind:      domain.NotificationDefenseReminder,
			Title:     "Defense reminder",
			Message:   message,
			DefenseID: &defenseID,
		})
	}

	if len(pending) == 0 {
		return 0, skipped
	}
	if err := j.notifications.CreateBatch(ctx, pending); err != nil {
		j.logger.Error("defense reminder: failed to create notifications",
			zap.String("defense_id", defense.ID.String()),
			zap.Error(err),
		)
		return 0, skipped
	}
	return len(pending), skipped
}

// RegisterDefenseReminderJob registers the reminder job with the scheduler.
func RegisterDefenseReminderJob(
	scheduler *Scheduler,
	defenses DefenseLister,
	notifications ReminderStore,
	groups GroupFetcher,
	tokens TokenSource,
	logger *zap.Logger,
	cronExpr string,
	window time.Duration,
	timeout time.Duration,
) error {
	job := NewDefenseReminderJob(defenses, notifications, groups, tokens, window, timeout, logger)
	return scheduler.AddJob(DefenseReminderJobName, cronExpr, job.Run)
}
