package main

const (
	// exitFailure covers configuration, storage and usage errors.
	exitFailure = 1
	// exitIncomplete reports a build that ran but could not scan every root.
	exitIncomplete = 2
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

func exitSilent(code int) error {
	return exitError{code: code, silent: true}
}

func exitWith(code int, message string) error {
	return exitError{code: code, message: message}
}
