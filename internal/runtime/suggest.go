package runtime

import (
	apperrors "github.com/hojoonlee/pilltick/internal/errors"
)

// FormatError returns a user-facing message for an error.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// GetSuggestion returns a follow-up hint for known failure modes, or an
// empty string when there is nothing useful to suggest.
func GetSuggestion(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrPermissionDenied):
		return "Notification permission was denied. Re-enable it in your browser settings."
	case apperrors.Is(err, apperrors.ErrPushUnsupported):
		return "This platform does not support push. Alarms still fire while the app is open."
	case apperrors.Is(err, apperrors.ErrNoUserID):
		return "No user configured. Set PILLTICK_USER or pass --user."
	case apperrors.Is(err, apperrors.ErrWorkerNotReady):
		return "The delivery worker is not running. Start it with 'pilltick daemon start'."
	case apperrors.Is(err, apperrors.ErrSubscriptionMissing):
		return "No push subscription found. Subscribe with 'pilltick push subscribe'."
	case apperrors.Is(err, apperrors.ErrCameraUnavailable):
		return "Camera is unavailable. Close other apps using it and try again."
	case apperrors.Is(err, apperrors.ErrSnoozeLimitReached):
		return "Snooze limit reached for this alarm. Take the dose to dismiss it."
	case apperrors.Is(err, apperrors.ErrNoActiveAlarm):
		return "No alarm is firing right now. Check the schedule with 'pilltick alarm list'."
	}

	switch apperrors.Classify(err) {
	case apperrors.CategoryStore:
		return "The backing store rejected the request. Check the collaborator and try again."
	case apperrors.CategoryTransient:
		return "This looks temporary. Try again in a moment."
	}
	return ""
}
