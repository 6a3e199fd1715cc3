package application

import (
	"context"

	"diadesorte/domain/entities"
	"diadesorte/domain/events"
	"diadesorte/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RegisterContestNotifications posts every new contest through notifier
func RegisterContestNotifications(bus *events.Bus, notifier interfaces.ContestNotifier) {
	bus.Subscribe(events.EventTypeNewContest, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.NewContestEvent)
		if !ok {
			return
		}
		if err := notifier.NotifyNewContest(ctx, drawFromEvent(e)); err != nil {
			log.WithFields(log.Fields{
				"contest": e.ContestNumber,
				"error":   err,
			}).Error("Failed to notify new contest")
		}
	})
}

func drawFromEvent(e events.NewContestEvent) *entities.Draw {
	return &entities.Draw{
		ContestNumber:      e.ContestNumber,
		DrawDate:           e.DrawDate,
		Numbers:            e.Numbers,
		LuckyMonth:         e.LuckyMonth,
		Accumulated:        e.Accumulated,
		NextContestNumber:  e.NextContest,
		NextEstimatedPrize: e.NextPrize,
	}
}
