package constants

const (
	StatusLobby       = "lobby"
	StatusQuestion    = "question"
	StatusReveal      = "reveal"
	StatusLeaderboard = "leaderboard"
	StatusFinished    = "finished"
)

const (
	QuestionTypeQuiz      = "quiz"
	QuestionTypeTrueFalse = "truefalse"
	QuestionTypeType      = "type"
	QuestionTypeSlider    = "slider"
	QuestionTypeOrder     = "order"
)

const (
	MediaTypeNone  = "none"
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
)

// QuizPool is the quizId sentinel meaning "draw from the full question pool".
const QuizPool = ""

const (
	GamesNamespace = "games"
	PinLength      = 6
)

const (
	DefaultQuestionCount   = 10
	DefaultTimePerQuestion = 20
	DefaultSliderTolerance = 5
	DefaultHistoryLimit    = 20
	TopPlayersInHistory    = 3
)

const (
	EventGameCreated   = "game.created"
	EventGameStarted   = "game.started"
	EventGameFinished  = "game.finished"
	EventGameCancelled = "game.cancelled"
)
