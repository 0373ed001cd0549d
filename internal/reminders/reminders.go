package reminders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hako/durafmt"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/xelth-com/sowflow/internal/models"
)

const reminderKey = "sow_reminders"

// Notifier is the sink reminder events are pushed into.
type Notifier interface {
	Notify(event string, payload map[string]interface{})
}

// Scheduler nags reviewers about documents that sit in review too long.
// Due times live in a redis sorted set keyed by the document id; a polling
// loop fires reminders and re-arms them until the document leaves review.
type Scheduler struct {
	rdb        *redis.Client
	db         *gorm.DB
	notifier   Notifier
	afterHours int
	log        *log.Entry
}

// New connects to redis and returns a scheduler. Returns an error when
// redis is unreachable so the caller can run without reminders.
func New(addr, password string, redisDB int, db *gorm.DB, notifier Notifier, afterHours int) (*Scheduler, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       redisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if afterHours <= 0 {
		afterHours = 24
	}
	return &Scheduler{
		rdb:        client,
		db:         db,
		notifier:   notifier,
		afterHours: afterHours,
		log:        log.WithField("component", "reminders"),
	}, nil
}

// ScheduleForSOW arms a reminder for a freshly submitted document.
// Best-effort: failures are logged, never surfaced.
func (s *Scheduler) ScheduleForSOW(sow *models.SOW, approvals []models.Approval) {
	due := time.Now().Add(time.Duration(s.afterHours) * time.Hour)
	err := s.rdb.ZAdd(context.Background(), reminderKey, redis.Z{
		Score:  float64(due.Unix()),
		Member: sow.ID,
	}).Err()
	if err != nil {
		s.log.Warnf("could not schedule reminder for sow %s: %v", sow.ID, err)
	}
}

// ClearForSOW disarms the reminder once the document leaves review.
func (s *Scheduler) ClearForSOW(sowID string) {
	if err := s.rdb.ZRem(context.Background(), reminderKey, sowID).Err(); err != nil {
		s.log.Warnf("could not clear reminder for sow %s: %v", sowID, err)
	}
}

// Run polls for due reminders until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := s.rdb.ZRangeByScoreWithScores(ctx, reminderKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		s.log.Warnf("could not read due reminders: %v", err)
		return
	}

	for _, z := range due {
		sowID, ok := z.Member.(string)
		if !ok {
			continue
		}
		s.fire(ctx, sowID)
	}
}

func (s *Scheduler) fire(ctx context.Context, sowID string) {
	var sow models.SOW
	if err := s.db.First(&sow, "sow_id = ?", sowID).Error; err != nil {
		s.rdb.ZRem(ctx, reminderKey, sowID)
		return
	}
	if sow.Status != models.SOWStatusInReview || sow.SubmittedAt == nil {
		s.rdb.ZRem(ctx, reminderKey, sowID)
		return
	}

	var pending int64
	err := s.db.Model(&models.Approval{}).
		Where("sow_id = ? AND status = ?", sowID, models.ApprovalStatusPending).
		Count(&pending).Error
	if err != nil || pending == 0 {
		s.rdb.ZRem(ctx, reminderKey, sowID)
		return
	}

	waiting := durafmt.Parse(time.Since(*sow.SubmittedAt).Round(time.Minute)).LimitFirstN(2)
	if s.notifier != nil {
		s.notifier.Notify("sow.reminder", map[string]interface{}{
			"sowId":            sow.ID,
			"title":            sow.Title,
			"pendingApprovals": pending,
			"waitingFor":       waiting.String(),
		})
	}
	s.log.Infof("reminder sent for sow %s (%d pending, waiting %s)", sow.ID, pending, waiting)

	// Re-arm until the document leaves review.
	next := time.Now().Add(time.Duration(s.afterHours) * time.Hour)
	s.rdb.ZAdd(ctx, reminderKey, redis.Z{Score: float64(next.Unix()), Member: sowID})
}
