package game

import "quizmas-service/internal/models"

type EventType string

const (
	EventStatusChanged   EventType = "status_changed"
	EventPlayerJoined    EventType = "player_joined"
	EventPlayerLeft      EventType = "player_left"
	EventQuestionChanged EventType = "question_changed"
	EventGameUpdated     EventType = "game_update"
	EventGameDeleted     EventType = "game_deleted"
)

// Event is derived by comparing two consecutive snapshots of a game record.
// Game is the newer snapshot and must not be modified.
type Event struct {
	Type     EventType
	Status   string
	Player   *models.Player
	Question *models.QuestionSnapshot
	Game     *models.GameRecord
}

type EventHandler interface {
	HandleEvent(Event)
}

type EventHandlerFunc func(Event)

func (f EventHandlerFunc) HandleEvent(e Event) { f(e) }

// DiffSnapshots returns the events that lead from prev to next, in delivery
// order: status, joins, departures, question, then the full update. A nil next
// means the record was deleted. A nil prev is the first snapshot seen.
func DiffSnapshots(prev, next *models.GameRecord) []Event {
	if next == nil {
		return []Event{{Type: EventGameDeleted}}
	}

	var events []Event
	if prev == nil || prev.Status != next.Status {
		events = append(events, Event{Type: EventStatusChanged, Status: next.Status, Game: next})
	}

	if prev != nil {
		for _, p := range OrderedPlayers(next) {
			if _, ok := prev.Players[p.ID]; !ok {
				events = append(events, Event{Type: EventPlayerJoined, Player: &p, Game: next})
			}
		}
		for _, p := range OrderedPlayers(prev) {
			if _, ok := next.Players[p.ID]; !ok {
				events = append(events, Event{Type: EventPlayerLeft, Player: &p, Game: next})
			}
		}
		if prev.CurrentQuestion != next.CurrentQuestion {
			events = append(events, Event{Type: EventQuestionChanged, Question: CurrentQuestion(next), Game: next})
		}
	}

	return append(events, Event{Type: EventGameUpdated, Status: next.Status, Game: next})
}
