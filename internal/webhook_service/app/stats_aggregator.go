package app

import (
	"github.com/lherme-source/waba-panel/internal/webhook_service/domain"
)

// AggregateStats replays events into flat delivery-outcome counters. It needs
// no contact resolution: every status sub-entry bumps the counter matching
// its status string and every inbound message counts as a reply.
//
// There is deliberately no deduplication by message id here; a status
// redelivered by the provider inflates its counter.
func AggregateStats(events []domain.RawEvent) domain.StatsSnapshot {
	timer := prometheusTimer("stats")
	defer timer()

	var snap domain.StatsSnapshot

	for _, evt := range events {
		for _, entry := range evt.Payload.Entry {
			for _, change := range entry.Changes {
				for _, status := range change.Value.Statuses {
					switch domain.MessageStatus(status.Status) {
					case domain.MessageStatusSent:
						snap.Sent++
					case domain.MessageStatusDelivered:
						snap.Delivered++
					case domain.MessageStatusFailed:
						snap.Failed++
					case domain.MessageStatusRead:
						snap.Read++
					}
				}
				snap.Replied += len(change.Value.Messages)
			}
		}
	}

	snap.Total = snap.Sent + snap.Delivered + snap.Failed + snap.Read + snap.Replied
	return snap
}
