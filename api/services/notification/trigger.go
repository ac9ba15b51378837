package notification

import (
	"context"
	"fmt"
	tiervalues "lifebit/pkg/rankvalues/tier"
	"log"
)

// Notification kinds understood by the delivery side.
const (
	KindTierChange = "TIER_CHANGE"
	KindSeasonEnd  = "SEASON_END"
)

// Sink is the external delivery collaborator. A nil userID is a broadcast.
type Sink interface {
	Send(ctx context.Context, userID *uint, kind, title, body string) error
}

// Trigger requests notifications on ranking state transitions. Every failure
// is logged and discarded, the surrounding score operation never sees it.
type Trigger struct {
	sink Sink
}

// NewTrigger creates a notification trigger.
func NewTrigger(sink Sink) *Trigger {
	return &Trigger{sink: sink}
}

// TierChange announces a tier transition to one user.
func (t *Trigger) TierChange(ctx context.Context, userID uint, previousTier, newTier string) {
	body := fmt.Sprintf("축하합니다! 티어가 %s에서 %s로 변경되었습니다!",
		tiervalues.DisplayName(previousTier),
		tiervalues.DisplayName(newTier),
	)

	if err := t.sink.Send(ctx, &userID, KindTierChange, "티어 변동!", body); err != nil {
		log.Printf("tier change notification failed for user %d (%s -> %s): %v",
			userID, previousTier, newTier, err)
	}
}

// SeasonEnd announces a season close to everyone.
func (t *Trigger) SeasonEnd(ctx context.Context, season int) {
	body := fmt.Sprintf("%d 시즌이 종료되었습니다.", season)

	if err := t.sink.Send(ctx, nil, KindSeasonEnd, "시즌 종료 알림", body); err != nil {
		log.Printf("season end notification failed for season %d: %v", season, err)
	}
}
