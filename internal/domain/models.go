package domain

import (
	"strings"
	"time"
)

// TotalQuestions is the fixed length of one quiz playthrough.
const TotalQuestions = 10

// OptionsPerQuestion is the number of answer options shown for a question.
const OptionsPerQuestion = 4

// Entity is one selectable record (a country) of a fetched snapshot.
type Entity struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Continent    string `json:"continent"`
	MediaRef     string `json:"flagUrl,omitempty"`
	FavoriteCode string `json:"code,omitempty"`
	Capital      string `json:"capital,omitempty"`
	Population   int64  `json:"population,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// HasUsableMedia reports whether the entity carries a flag URL that can be rendered.
func (e Entity) HasUsableMedia() bool {
	ref := strings.TrimSpace(e.MediaRef)
	if ref == "" || strings.EqualFold(ref, "null") {
		return false
	}
	return strings.HasPrefix(strings.ToLower(ref), "http")
}

// Identity is the verified actor behind a connection. The zero value means no session.
type Identity struct {
	UserID string
	Email  string
}

// Present reports whether an authenticated session is attached.
func (i Identity) Present() bool {
	return i.UserID != ""
}

// Question models one multiple choice trial with exactly one correct option.
type Question struct {
	Trial   int      `json:"trial"`
	Target  Entity   `json:"-"`
	Options []Entity `json:"options"`
}

// QuestionView is the client-facing form of a question; it does not reveal the target.
type QuestionView struct {
	Trial    int          `json:"trial"`
	MediaRef string       `json:"flagUrl"`
	Options  []OptionView `json:"options"`
}

// OptionView is a single answer button.
type OptionView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// View strips the answer from the question.
func (q Question) View() QuestionView {
	options := make([]OptionView, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, OptionView{ID: opt.ID, Name: opt.Name})
	}
	return QuestionView{Trial: q.Trial, MediaRef: q.Target.MediaRef, Options: options}
}

// QuizStatus is the lifecycle state of a quiz session.
type QuizStatus string

const (
	QuizLoading      QuizStatus = "loading"
	QuizInProgress   QuizStatus = "in_progress"
	QuizFinished     QuizStatus = "finished"
	QuizInsufficient QuizStatus = "insufficient"
)

// QuizState is a snapshot of a quiz session pushed to hosts.
type QuizState struct {
	Status        QuizStatus    `json:"status"`
	QuestionIndex int           `json:"questionIndex"`
	Total         int           `json:"total"`
	Score         int           `json:"score"`
	Progress      float64       `json:"progress"`
	Question      *QuestionView `json:"question,omitempty"`
	SelectedID    *int          `json:"selectedId,omitempty"`
	Outcome       *Outcome      `json:"outcome,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// AnswerResult summarizes the evaluation of a single answer.
type AnswerResult struct {
	Trial     int  `json:"trial"`
	ChosenID  int  `json:"chosenId"`
	CorrectID int  `json:"correctId"`
	Correct   bool `json:"correct"`
	Score     int  `json:"score"`
}

// PoolState describes the entity pool held for one identity.
type PoolState struct {
	Size    int    `json:"size"`
	Usable  int    `json:"usable"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// ToggleState is the remote persistence status of one favorite toggle.
type ToggleState string

const (
	TogglePending   ToggleState = "pending"
	ToggleConfirmed ToggleState = "confirmed"
	ToggleFailed    ToggleState = "failed"
)

// ToggleResult reports a favorite toggle; Favorite is the membership after the optimistic flip.
type ToggleResult struct {
	ID         string      `json:"id"`
	Code       string      `json:"code"`
	EntityID   int         `json:"entityId"`
	Favorite   bool        `json:"favorite"`
	State      ToggleState `json:"state"`
	RolledBack bool        `json:"rolledBack,omitempty"`
	Error      string      `json:"error,omitempty"`
}
