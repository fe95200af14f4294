package tui

import "errors"

// ErrMissingReviewService is returned when the review service is not provided.
var ErrMissingReviewService = errors.New("tui: review service is required")

// ErrMissingQuestionService is returned when the question service is not provided.
var ErrMissingQuestionService = errors.New("tui: question service is required")

// ErrInvalidPorts is returned when no ports are supplied.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
