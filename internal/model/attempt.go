package model

import "fmt"

// AttemptState состояние одной попытки бронирования
type AttemptState string

const (
	AttemptStart          AttemptState = "start"
	AttemptReserving      AttemptState = "reserving"
	AttemptReserved       AttemptState = "reserved"
	AttemptRejected       AttemptState = "rejected"
	AttemptRecording      AttemptState = "recording"
	AttemptCommitted      AttemptState = "committed"
	AttemptRollingBack    AttemptState = "rolling_back"
	AttemptRolledBack     AttemptState = "rolled_back"
	AttemptRollbackFailed AttemptState = "rollback_failed"
)

var attemptTransitions = map[AttemptState][]AttemptState{
	AttemptStart:       {AttemptReserving},
	AttemptReserving:   {AttemptReserved, AttemptRejected},
	AttemptReserved:    {AttemptRecording},
	AttemptRecording:   {AttemptCommitted, AttemptRollingBack},
	AttemptRollingBack: {AttemptRolledBack, AttemptRollbackFailed},
}

// IsTerminal true для конечных состояний
func (s AttemptState) IsTerminal() bool {
	switch s {
	case AttemptRejected, AttemptCommitted, AttemptRolledBack, AttemptRollbackFailed:
		return true
	}
	return false
}

// CanTransition проверяет допустимость перехода
func (s AttemptState) CanTransition(to AttemptState) bool {
	for _, next := range attemptTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Attempt отслеживает жизненный цикл попытки. Повторный вход в reserving
// невозможен: клиент повторяет запрос как новую попытку.
type Attempt struct {
	state AttemptState
}

func NewAttempt() *Attempt {
	return &Attempt{state: AttemptStart}
}

func (a *Attempt) State() AttemptState {
	return a.state
}

// Transition переводит попытку в состояние to
func (a *Attempt) Transition(to AttemptState) error {
	if !a.state.CanTransition(to) {
		return fmt.Errorf("illegal attempt transition %s -> %s", a.state, to)
	}
	a.state = to
	return nil
}
