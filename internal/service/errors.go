package service

import "errors"

var (
	// ErrActiveSubmissionExists rejects a second non-archived submission for
	// the same (trainee, test) pair. Only the vetting-timer expiry path may
	// bypass it, since that path completes the in-flight attempt.
	ErrActiveSubmissionExists = errors.New("an active submission already exists for this trainee and test")

	// ErrEmptyTest blocks submission against a test with no questions.
	ErrEmptyTest = errors.New("test has no questions")
)
