package manual

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"timeboard/internal/timeutil"
	"timeboard/worklog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Input is a manual entry as typed by a user: a calendar date and two wall-clock
// times in Timezone (blank means UTC).
type Input struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime     string `json:"endTime" validate:"required,datetime=15:04"`
	Project     string `json:"project" validate:"max=255"`
	Description string `json:"description" validate:"max=4000"`
	Timezone    string `json:"timezone" validate:"omitempty,timezone"`
}

// ValidationError maps input field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+" "+e.Fields[key])
	}
	return "invalid manual entry: " + strings.Join(parts, "; ")
}

type Creator interface {
	CreateEntry(entry worklog.Entry) (worklog.Entry, error)
}

type Service struct {
	store Creator
	now   func() time.Time
}

func NewService(store Creator) *Service {
	return &Service{store: store, now: time.Now}
}

// Create validates the input and stores it as a new manual entry.
func (s *Service) Create(input Input) (worklog.Entry, error) {
	entry, err := Build(input, s.now())
	if err != nil {
		return worklog.Entry{}, err
	}

	created, err := s.store.CreateEntry(entry)
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("store manual entry: %w", err)
	}
	return created, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Build validates input and converts it to an entry without storing it.
// Duration is (end - start) in exact hours; end must be strictly after start on the
// same day.
func Build(input Input, now time.Time) (worklog.Entry, error) {
	input = trimInput(input)

	if fields := validateInput(input); len(fields) > 0 {
		return worklog.Entry{}, &ValidationError{Fields: fields}
	}

	hours, err := timeutil.DurationHours(input.StartTime, input.EndTime)
	if err != nil {
		return worklog.Entry{}, err
	}

	start, err := timeutil.WallClockToInstant(input.Date, input.StartTime, input.Timezone)
	if err != nil {
		return worklog.Entry{}, &ValidationError{Fields: map[string]string{"timezone": err.Error()}}
	}

	return worklog.Entry{
		Source:      worklog.SourceManual,
		ExternalID:  worklog.StringPtr(NewExternalID(now)),
		Date:        start,
		Duration:    hours,
		Project:     worklog.StringPtr(input.Project),
		Description: worklog.StringPtr(input.Description),
	}, nil
}

// NewExternalID returns manual-<yyyymmdd-hhmmss>-<8 hex chars>.
func NewExternalID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("manual-%s-%s", now.UTC().Format("20060102-150405"), suffix)
}

func validateInput(input Input) map[string]string {
	fields := make(map[string]string)

	if err := validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			fields["input"] = err.Error()
			return fields
		}
		for _, fieldErr := range validationErrs {
			fields[fieldErr.Field()] = describe(fieldErr)
		}
	}

	_, startBad := fields["startTime"]
	_, endBad := fields["endTime"]
	if !startBad && !endBad {
		startMinutes, startErr := timeutil.ParseClockMinutes(input.StartTime)
		endMinutes, endErr := timeutil.ParseClockMinutes(input.EndTime)
		if startErr == nil && endErr == nil && endMinutes <= startMinutes {
			fields["endTime"] = "must be later than startTime"
		}
	}

	return fields
}

func describe(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "datetime":
		switch fieldErr.Param() {
		case timeutil.DateLayout:
			return "must be a calendar date (YYYY-MM-DD)"
		default:
			return "must be a wall-clock time (HH:MM)"
		}
	case "timezone":
		return "must be an IANA timezone name"
	case "max":
		return "must be at most " + fieldErr.Param() + " characters"
	default:
		return "is invalid"
	}
}

func trimInput(input Input) Input {
	input.Date = strings.TrimSpace(input.Date)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.EndTime = strings.TrimSpace(input.EndTime)
	input.Project = strings.TrimSpace(input.Project)
	input.Description = strings.TrimSpace(input.Description)
	input.Timezone = strings.TrimSpace(input.Timezone)
	return input
}
