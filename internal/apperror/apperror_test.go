package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	driverErr := errors.New("disk I/O error")

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("mood entry", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("intensity", "intensity must be between 1 and 10"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("already logged"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "StoreFailure wraps ErrStore",
			err:       StoreFailure("saving mood entry", driverErr),
			target:    ErrStore,
			wantMatch: true,
		},
		{
			name:      "StoreFailure also matches its cause",
			err:       StoreFailure("saving mood entry", driverErr),
			target:    driverErr,
			wantMatch: true,
		},
		{
			name:      "Unavailable wraps ErrUnavailable",
			err:       Unavailable("no provider"),
			target:    ErrUnavailable,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("mood entry", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "ValidationFailed does NOT match ErrNotFound",
			err:       ValidationFailed("notes", "too long"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("mood entry", "abc123"),
			wantMessage: "mood entry not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("mood", "mood is required"),
			wantMessage: "mood is required",
		},
		{
			name:        "Conflict uses custom message",
			err:         Conflict("mood already logged today"),
			wantMessage: "mood already logged today",
		},
		{
			name:        "StoreFailure appends the cause",
			err:         StoreFailure("listing mood entries", errors.New("boom")),
			wantMessage: "storage failure while listing mood entries: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	var wrapped error = NotFound("mood entry", "abc123")
	wrapped = errors.Join(errors.New("context"), wrapped)

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() did not find *AppError in chain")
	}
	if appErr.Message != "mood entry not found with id abc123" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("intensity", "intensity must be between 1 and 10")

	if err.Field != "intensity" {
		t.Errorf("Field = %q, want %q", err.Field, "intensity")
	}
}
