package heal

import "errors"

var (
	// ErrNoFix indicates a healer has no fix function.
	ErrNoFix = errors.New("heal: healer has no fix function")

	// ErrBlocked indicates a fix targets a blocklisted path.
	ErrBlocked = errors.New("heal: target file is blocklisted")

	// ErrNotPrompt indicates Confirm was called on a result that is not a prompt.
	ErrNotPrompt = errors.New("heal: result is not a prompt")

	// ErrPromptResolved indicates a prompt was already confirmed or declined.
	ErrPromptResolved = errors.New("heal: prompt already resolved")

	// ErrNoPending indicates no prompt is pending for the check.
	ErrNoPending = errors.New("heal: no pending prompt for check")

	// ErrBackupNotFound indicates an unknown backup ID.
	ErrBackupNotFound = errors.New("heal: backup not found")

	// ErrInvalidBackupID indicates a malformed backup ID.
	ErrInvalidBackupID = errors.New("heal: invalid backup id")
)
