package service

import (
	"errors"

	"finquest/internal/models"
)

// Business errors the handlers map to API error codes. Anything else
// surfaces as an internal error.
var (
	ErrRoundUnavailable = errors.New("no playable round")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrInvalidSelection = errors.New("selection not part of this round")
	ErrWeeklyCapReached = errors.New("weekly play cap reached")
)

// WeeklyCapError is the cap rejection with the context a client needs
// to render it: last round's summary and when play reopens.
type WeeklyCapError struct {
	LastSummary   *models.RoundSummary `json:"last_summary,omitempty"`
	NextWeekStart string               `json:"next_week_start"`
}

func (e *WeeklyCapError) Error() string {
	return ErrWeeklyCapReached.Error()
}

func (e *WeeklyCapError) Unwrap() error {
	return ErrWeeklyCapReached
}
