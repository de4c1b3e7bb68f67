package app

import (
	"sync"
	"time"

	"floria-quiz-service/internal/domain"
)

// DefaultSettleDelay is how long an answered question stays on screen before advancing.
const DefaultSettleDelay = 800 * time.Millisecond

// Scheduler runs f once after d and returns a function that cancels it.
// Implementations must not invoke f synchronously.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func timerScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// QuizOption customizes a QuizSession.
type QuizOption func(*QuizSession)

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) QuizOption {
	return func(s *QuizSession) { s.settle = d }
}

// WithScheduler replaces time.AfterFunc, mainly for tests.
func WithScheduler(schedule Scheduler) QuizOption {
	return func(s *QuizSession) { s.schedule = schedule }
}

// WithClock allows deterministic timestamps in tests.
func WithClock(now func() time.Time) QuizOption {
	return func(s *QuizSession) { s.now = now }
}

// WithQuizRecorder reports questions, answers and outcomes.
func WithQuizRecorder(r Recorder) QuizOption {
	return func(s *QuizSession) { s.recorder = r }
}

// QuizSession is one playthrough of a bounded multiple choice quiz.
type QuizSession struct {
	generator *Generator
	settle    time.Duration
	schedule  Scheduler
	now       func() time.Time
	recorder  Recorder

	mu          sync.RWMutex
	status      domain.QuizStatus
	pool        []domain.Entity
	index       int
	score       int
	question    *domain.Question
	selected    *int
	epoch       uint64
	stopSettle  func() bool
	subscribers map[chan domain.QuizState]struct{}
	closed      bool
}

// NewQuizSession returns a session in the loading state.
func NewQuizSession(generator *Generator, opts ...QuizOption) *QuizSession {
	s := &QuizSession{
		generator:   generator,
		settle:      DefaultSettleDelay,
		schedule:    timerScheduler,
		now:         time.Now,
		recorder:    NopRecorder{},
		status:      domain.QuizLoading,
		index:       1,
		subscribers: make(map[chan domain.QuizState]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restart resets counters and draws the first question from pool.
// When the pool cannot support a question the session parks in QuizInsufficient
// and domain.ErrInsufficientPool is returned alongside the state.
func (s *QuizSession) Restart(pool []domain.Entity) (domain.QuizState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelSettleLocked()
	s.epoch++
	s.pool = append([]domain.Entity(nil), pool...)
	s.index = 1
	s.score = 0
	s.selected = nil

	q, err := s.generator.CreateQuestion(s.pool)
	if err != nil {
		s.status = domain.QuizInsufficient
		s.question = nil
		return s.broadcastLocked(), err
	}
	q.Trial = s.index
	s.question = &q
	s.status = domain.QuizInProgress
	s.recorder.QuestionGenerated()
	return s.broadcastLocked(), nil
}

// Reset parks the session in QuizLoading, dropping the pool and any pending advance.
func (s *QuizSession) Reset() domain.QuizState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelSettleLocked()
	s.epoch++
	s.pool = nil
	s.index = 1
	s.score = 0
	s.selected = nil
	s.question = nil
	s.status = domain.QuizLoading
	return s.broadcastLocked()
}

// Evaluate records the answer for trial. Only the first answer of a trial counts;
// later calls return domain.ErrAlreadyAnswered without touching the score.
func (s *QuizSession) Evaluate(trial, chosenID int) (domain.AnswerResult, error) {
	s.mu.Lock()
	if s.status != domain.QuizInProgress || s.question == nil {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrNoActiveQuestion
	}
	if trial != s.question.Trial {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrStaleQuestion
	}
	if s.selected != nil {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrAlreadyAnswered
	}
	if !hasOption(*s.question, chosenID) {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrOptionNotFound
	}

	chosen := chosenID
	s.selected = &chosen
	correct := chosenID == s.question.Target.ID
	if correct {
		s.score++
	}
	s.recorder.AnswerEvaluated(correct)

	result := domain.AnswerResult{
		Trial:     trial,
		ChosenID:  chosenID,
		CorrectID: s.question.Target.ID,
		Correct:   correct,
		Score:     s.score,
	}
	epoch := s.epoch
	s.broadcastLocked()
	s.mu.Unlock()

	stop := s.schedule(s.settle, func() { s.advance(epoch, trial) })

	s.mu.Lock()
	if s.epoch == epoch && s.selected != nil && s.question != nil && s.question.Trial == trial {
		s.stopSettle = stop
	}
	s.mu.Unlock()

	return result, nil
}

// advance moves past an answered trial once the settle delay elapsed.
func (s *QuizSession) advance(epoch uint64, trial int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.epoch != epoch || s.selected == nil || s.question == nil || s.question.Trial != trial {
		return
	}
	s.selected = nil
	s.stopSettle = nil

	if s.index < domain.TotalQuestions {
		if q, err := s.generator.CreateQuestion(s.pool); err == nil {
			s.index++
			q.Trial = s.index
			s.question = &q
			s.recorder.QuestionGenerated()
			s.broadcastLocked()
			return
		}
	}

	s.status = domain.QuizFinished
	s.question = nil
	s.recorder.SessionFinished(domain.TierFor(s.score, domain.TotalQuestions))
	s.broadcastLocked()
}

// Snapshot returns the current state without changing it.
func (s *QuizSession) Snapshot() domain.QuizState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives state updates, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizSession) Subscribe() (<-chan domain.QuizState, func()) {
	ch := make(chan domain.QuizState, 8)

	s.mu.Lock()
	if s.closed {
		ch <- s.snapshotLocked()
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close stops any pending advance and closes every subscription.
func (s *QuizSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelSettleLocked()
	s.epoch++
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *QuizSession) cancelSettleLocked() {
	if s.stopSettle != nil {
		s.stopSettle()
		s.stopSettle = nil
	}
}

func (s *QuizSession) broadcastLocked() domain.QuizState {
	state := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// Slow subscriber: drop its oldest pending update.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
	return state
}

func (s *QuizSession) snapshotLocked() domain.QuizState {
	state := domain.QuizState{
		Status:        s.status,
		QuestionIndex: s.index,
		Total:         domain.TotalQuestions,
		Score:         s.score,
		Progress:      float64(s.index) / float64(domain.TotalQuestions),
		UpdatedAt:     s.now(),
	}
	if state.Progress > 1 {
		state.Progress = 1
	}
	if s.question != nil {
		view := s.question.View()
		state.Question = &view
	}
	if s.selected != nil {
		selected := *s.selected
		state.SelectedID = &selected
	}
	if s.status == domain.QuizFinished {
		outcome := domain.OutcomeFor(s.score, domain.TotalQuestions)
		state.Outcome = &outcome
	}
	return state
}

func hasOption(q domain.Question, id int) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}
