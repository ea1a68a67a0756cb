package app

import (
	"sort"
	"strconv"
	"time"

	"github.com/lherme-source/waba-panel/internal/webhook_service/domain"
)

// trackedMessage pairs a message with its arrival position so sorting by
// payload timestamp can fall back to arrival order on ties.
type trackedMessage struct {
	msg     domain.Message
	arrival int
}

type conversationState struct {
	conv    domain.Conversation
	msgs    []trackedMessage
	byID    map[string]int // message id -> index into msgs
	arrival int
}

// ReconstructConversations replays events oldest-first into per-contact
// message threads. It is a pure function of its input: the event log is never
// mutated here.
//
// Sub-entries missing the sender/recipient or message id are skipped rather
// than aborting the whole replay; an unparseable timestamp yields the zero
// time but keeps the message.
func ReconstructConversations(events []domain.RawEvent) []domain.Conversation {
	timer := prometheusTimer("conversations")
	defer timer()

	states := make(map[string]*conversationState)
	var order []string // contact ids in first-seen order, for deterministic output

	getState := func(contactID, name string) *conversationState {
		st, ok := states[contactID]
		if !ok {
			if name == "" {
				name = contactID
			}
			st = &conversationState{
				conv: domain.Conversation{
					ContactID: contactID,
					Phone:     contactID,
					Name:      name,
				},
				byID: make(map[string]int),
			}
			states[contactID] = st
			order = append(order, contactID)
		}
		return st
	}

	for _, evt := range events {
		for _, entry := range evt.Payload.Entry {
			for _, change := range entry.Changes {
				value := change.Value

				for _, msg := range value.Messages {
					if msg.From == "" || msg.ID == "" {
						continue
					}
					st := getState(msg.From, profileName(value.Contacts, msg.From))

					if _, exists := st.byID[msg.ID]; exists {
						// Redelivered notification; the thread already has it.
						continue
					}

					ts := parseProviderTimestamp(msg.Timestamp)
					st.byID[msg.ID] = len(st.msgs)
					st.msgs = append(st.msgs, trackedMessage{
						msg: domain.Message{
							ID:        msg.ID,
							Direction: domain.DirectionInbound,
							Text:      messageBody(msg),
							Type:      msg.Type,
							MediaID:   mediaID(msg),
							Timestamp: ts,
							Status:    domain.MessageStatusNone,
						},
						arrival: st.arrival,
					})
					st.arrival++
					st.conv.UnreadCount++
					if ts.After(st.conv.LastActivityTime) {
						st.conv.LastActivityTime = ts
					}
				}

				for _, status := range value.Statuses {
					if status.RecipientID == "" || status.ID == "" {
						continue
					}
					st := getState(status.RecipientID, "")

					if idx, exists := st.byID[status.ID]; exists {
						// Last-applied-wins; transitions are recorded, not
						// validated, because redelivery arrives out of order.
						st.msgs[idx].msg.Status = domain.MessageStatus(status.Status)
						continue
					}

					// The outbound send itself was not logged here; synthesize
					// a placeholder so the thread stays consistent.
					ts := parseProviderTimestamp(status.Timestamp)
					st.byID[status.ID] = len(st.msgs)
					st.msgs = append(st.msgs, trackedMessage{
						msg: domain.Message{
							ID:        status.ID,
							Direction: domain.DirectionOutbound,
							Timestamp: ts,
							Status:    domain.MessageStatus(status.Status),
						},
						arrival: st.arrival,
					})
					st.arrival++
					if ts.After(st.conv.LastActivityTime) {
						st.conv.LastActivityTime = ts
					}
				}
			}
		}
	}

	conversations := make([]domain.Conversation, 0, len(order))
	for _, contactID := range order {
		st := states[contactID]
		sort.SliceStable(st.msgs, func(i, j int) bool {
			ti, tj := st.msgs[i].msg.Timestamp, st.msgs[j].msg.Timestamp
			if ti.Equal(tj) {
				return st.msgs[i].arrival < st.msgs[j].arrival
			}
			return ti.Before(tj)
		})
		st.conv.Messages = make([]domain.Message, len(st.msgs))
		for i, tm := range st.msgs {
			st.conv.Messages[i] = tm.msg
		}
		conversations = append(conversations, st.conv)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastActivityTime.After(conversations[j].LastActivityTime)
	})
	return conversations
}

// profileName resolves the display name accompanying an inbound message.
func profileName(contacts []domain.WebhookContact, waID string) string {
	for _, c := range contacts {
		if c.WaID == waID {
			return c.Profile.Name
		}
	}
	return ""
}

// messageBody extracts human-readable text: the text body, a media caption,
// or a generic media marker.
func messageBody(msg domain.IncomingMessage) string {
	if msg.Text != nil && msg.Text.Body != "" {
		return msg.Text.Body
	}
	for _, media := range []*domain.MediaAttachment{msg.Image, msg.Document, msg.Video, msg.Audio} {
		if media != nil && media.Caption != "" {
			return media.Caption
		}
	}
	return "(media)"
}

func mediaID(msg domain.IncomingMessage) string {
	for _, media := range []*domain.MediaAttachment{msg.Image, msg.Document, msg.Video, msg.Audio} {
		if media != nil && media.ID != "" {
			return media.ID
		}
	}
	return ""
}

// parseProviderTimestamp converts the provider's unix-seconds string.
// Malformed values collapse to the zero time, which sorts first.
func parseProviderTimestamp(raw string) time.Time {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// prometheusTimer observes replay duration for the given view.
func prometheusTimer(view string) func() {
	start := time.Now()
	return func() {
		replayDurationHist.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}
