package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"quizmas-service/internal/auth"
	"quizmas-service/internal/constants"
	"quizmas-service/internal/game"
	"quizmas-service/internal/models"
	"quizmas-service/internal/store"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticQuestions []models.Question

func (s staticQuestions) QuizQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	return nil, nil
}

func (s staticQuestions) AllQuestions(ctx context.Context) ([]models.Question, error) {
	return s, nil
}

var bank = staticQuestions{
	{ID: "q1", Text: "Which plant is hung over doorways?", QuestionType: constants.QuestionTypeQuiz,
		Answers: []string{"Holly", "Mistletoe", "Pine"}, CorrectIndex: 1, TimeLimit: 20},
	{ID: "q2", Text: "Santa has a red nose", QuestionType: constants.QuestionTypeTrueFalse,
		CorrectAnswer: json.RawMessage(`false`), TimeLimit: 20},
}

type testServer struct {
	url   string
	store *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.NewMemoryStore()

	var mu sync.Mutex
	pins := 0
	svc := game.NewService(st, bank, nil,
		game.WithClock(clockwork.NewFakeClock()),
		game.WithPinGenerator(func() (string, error) {
			mu.Lock()
			defer mu.Unlock()
			pins++
			return fmt.Sprintf("%06d", 200000+pins), nil
		}),
	)
	hub := NewHub(svc, st, auth.NewTokenIssuer("test-secret", time.Hour))
	hub.shuffle = nil

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, r.URL.Query().Get("host_token"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{url: "ws" + strings.TrimPrefix(srv.URL, "http"), store: st}
}

type testConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func (s *testServer) dial(t *testing.T, query string) *testConn {
	t.Helper()
	url := s.url
	if query != "" {
		url += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	c := &testConn{t: t, conn: conn}
	c.expect(MessageTypeConnected)
	return c
}

func (c *testConn) send(msgType MessageType, payload any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(outgoing{Type: msgType, Payload: payload}))
}

// expect reads until a message of msgType arrives and decodes its payload
// into out, if given.
func (c *testConn) expect(msgType MessageType, out ...any) {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		var msg Message
		require.NoError(c.t, c.conn.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type != msgType {
			continue
		}
		if len(out) > 0 {
			require.NoError(c.t, json.Unmarshal(msg.Payload, out[0]))
		}
		return
	}
}

func (c *testConn) expectError(code string) {
	c.t.Helper()
	var p ErrorPayload
	c.expect(MessageTypeError, &p)
	assert.Equal(c.t, code, p.Code, p.Message)
}

func TestHubGameFlow(t *testing.T) {
	srv := newTestServer(t)
	host := srv.dial(t, "")
	player := srv.dial(t, "")

	host.send(MessageTypeCreateGame, CreateGamePayload{Settings: models.Settings{QuestionCount: 2}})
	var created GameCreatedPayload
	host.expect(MessageTypeGameCreated, &created)
	require.True(t, game.ValidPin(created.Pin))
	assert.NotEmpty(t, created.HostToken)

	player.send(MessageTypeJoinGame, JoinGamePayload{Pin: created.Pin, Name: "Alice"})
	var joined game.JoinResult
	player.expect(MessageTypeJoined, &joined)
	assert.Equal(t, created.Pin, joined.Pin)

	var arrived PlayerPayload
	host.expect(MessageTypePlayerJoined, &arrived)
	assert.Equal(t, "Alice", arrived.Player.Name)

	host.send(MessageTypeStartGame, nil)

	var hostView, playerView QuestionView
	host.expect(MessageTypeQuestionChanged, &hostView)
	player.expect(MessageTypeQuestionChanged, &playerView)
	require.NotNil(t, hostView.CorrectIndex)
	assert.Equal(t, 1, *hostView.CorrectIndex)
	assert.Nil(t, playerView.CorrectIndex)
	assert.Equal(t, 2, playerView.Total)

	player.send(MessageTypeSubmitAnswer, SubmitAnswerPayload{Value: json.RawMessage(`1`)})
	var feedback game.Feedback
	player.expect(MessageTypeAnswerResult, &feedback)
	assert.True(t, feedback.IsCorrect)
	assert.Equal(t, 1500, feedback.Points)

	player.send(MessageTypeSubmitAnswer, SubmitAnswerPayload{Value: json.RawMessage(`0`)})
	player.expect(MessageTypeAnswerResult, &feedback)
	assert.True(t, feedback.Duplicate)

	host.send(MessageTypeReveal, nil)
	var stats AnswerStatsPayload
	player.expect(MessageTypeAnswerStats, &stats)
	assert.Equal(t, 1, stats.Stats.Correct)
	require.NotNil(t, stats.Question)
	require.NotNil(t, stats.Question.CorrectIndex)

	host.send(MessageTypeShowLeaderboard, nil)
	host.expectError(codeInvalidState)

	host.send(MessageTypeContinue, nil)
	player.expect(MessageTypeQuestionChanged, &playerView)
	assert.Equal(t, 1, playerView.Index)

	host.send(MessageTypeEndGame, nil)
	var board LeaderboardPayload
	player.expect(MessageTypeLeaderboard, &board)
	assert.True(t, board.Final)
	require.Len(t, board.Leaderboard, 1)
	assert.Equal(t, 1500, board.Leaderboard[0].Score)
}

func TestHubRejectsInvalidRequests(t *testing.T) {
	srv := newTestServer(t)
	c := srv.dial(t, "")

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	c.expectError(codeInvalidInput)

	c.send("dance", nil)
	c.expectError(codeUnknownMessage)

	c.send(MessageTypeStartGame, nil)
	c.expectError(codeNotAuthorized)

	c.send(MessageTypeJoinGame, JoinGamePayload{Pin: "999999", Name: "Bob"})
	c.expectError(codeNotFound)

	c.send(MessageTypeResumeHost, ResumeHostPayload{HostToken: "forged"})
	c.expectError(codeNotAuthorized)

	c.send(MessageTypePing, nil)
	c.expect(MessageTypePong)
}

func TestHubResumeHostAndCancel(t *testing.T) {
	srv := newTestServer(t)
	first := srv.dial(t, "")
	first.send(MessageTypeCreateGame, CreateGamePayload{HostID: "host-1"})
	var created GameCreatedPayload
	first.expect(MessageTypeGameCreated, &created)
	first.conn.Close()

	host := srv.dial(t, "host_token="+created.HostToken)
	var resumed GameCreatedPayload
	host.expect(MessageTypeGameCreated, &resumed)
	assert.True(t, resumed.Resumed)
	assert.Equal(t, created.Pin, resumed.Pin)
	assert.Equal(t, "host-1", resumed.HostID)

	player := srv.dial(t, "")
	player.send(MessageTypeJoinGame, JoinGamePayload{Pin: created.Pin, Name: "Carol"})
	player.expect(MessageTypeJoined)

	host.send(MessageTypeCancelGame, nil)
	host.expect(MessageTypeGameDeleted)
	player.expect(MessageTypeGameDeleted)

	_, ok, err := srv.store.Read(context.Background(), store.GamePath(created.Pin))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHubPlayerDisconnectInLobby(t *testing.T) {
	srv := newTestServer(t)
	host := srv.dial(t, "")
	host.send(MessageTypeCreateGame, CreateGamePayload{})
	var created GameCreatedPayload
	host.expect(MessageTypeGameCreated, &created)

	player := srv.dial(t, "")
	player.send(MessageTypeJoinGame, JoinGamePayload{Pin: created.Pin, Name: "Dave"})
	var joined game.JoinResult
	player.expect(MessageTypeJoined, &joined)
	host.expect(MessageTypePlayerJoined)

	player.conn.Close()

	var left PlayerPayload
	host.expect(MessageTypePlayerLeft, &left)
	assert.Equal(t, joined.PlayerID, left.Player.ID)
	assert.Zero(t, left.PlayerCount)
}

func TestQuestionViewHidesTruth(t *testing.T) {
	q := &models.QuestionSnapshot{
		Index:         3,
		QuestionType:  constants.QuestionTypeOrder,
		OrderItems:    []string{"Dasher", "Dancer", "Prancer"},
		CorrectAnswer: json.RawMessage(`["Dasher","Dancer","Prancer"]`),
		Explanation:   "Alphabetical by sleigh position",
	}
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}

	hidden := NewQuestionView(q, 5, 20, false, reverse)
	assert.Equal(t, []string{"Prancer", "Dancer", "Dasher"}, hidden.OrderItems)
	assert.Empty(t, hidden.CorrectAnswer)
	assert.Empty(t, hidden.Explanation)
	assert.Equal(t, []string{"Dasher", "Dancer", "Prancer"}, q.OrderItems, "snapshot is not modified")

	full := NewQuestionView(q, 5, 20, true, reverse)
	assert.Equal(t, q.OrderItems, full.OrderItems)
	assert.JSONEq(t, string(q.CorrectAnswer), string(full.CorrectAnswer))
	assert.Nil(t, full.CorrectIndex)

	assert.Nil(t, NewQuestionView(nil, 0, 0, false, nil))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, codeCreationFailed, errorCode(fmt.Errorf("%w: %w", game.ErrCreation, &game.PersistenceError{Op: "create", Err: assert.AnError})))
	assert.Equal(t, codePersistence, errorCode(&game.PersistenceError{Op: "read", Err: assert.AnError}))
	assert.Equal(t, codeAlreadyStarted, errorCode(game.ErrAlreadyStarted))
	assert.Equal(t, codeInternal, errorCode(assert.AnError))
}
