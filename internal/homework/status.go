package homework

import (
	"fmt"
	"time"
)

const (
	keyName        = "homework_name"
	keyStatus      = "status"
	keyDateUpdated = "date_updated"

	// DateLayout is the layout of date_updated in submission records.
	DateLayout = "2006-01-02T15:04:05Z"
)

// Submission is the part of a submission record the bot cares about.
type Submission struct {
	Name        string
	Status      string
	DateUpdated string // empty when absent
}

// ParseSubmission extracts the required fields from one record.
func ParseSubmission(record any) (Submission, error) {
	m, ok := record.(map[string]any)
	if !ok {
		return Submission{}, malformed("запись о работе не является словарём")
	}
	rawName, ok := m[keyName]
	if !ok {
		return Submission{}, &FieldError{Field: keyName}
	}
	name, ok := rawName.(string)
	if !ok {
		return Submission{}, malformed("значение " + keyName + " не является строкой")
	}
	rawStatus, ok := m[keyStatus]
	if !ok {
		return Submission{}, &FieldError{Field: keyStatus}
	}
	status, ok := rawStatus.(string)
	if !ok {
		return Submission{}, &UnknownStatusError{Status: fmt.Sprint(rawStatus)}
	}
	s := Submission{Name: name, Status: status}
	if d, ok := m[keyDateUpdated].(string); ok {
		s.DateUpdated = d
	}
	return s, nil
}

// Message renders the notification text for the submission.
func (s Submission) Message() (string, error) {
	verdict, ok := Verdict(s.Status)
	if !ok {
		return "", &UnknownStatusError{Status: s.Status}
	}
	return FormatMessage(s.Name, verdict), nil
}

// Updated parses DateUpdated as UTC.
func (s Submission) Updated() (time.Time, error) {
	if s.DateUpdated == "" {
		return time.Time{}, &FieldError{Field: keyDateUpdated}
	}
	t, err := time.Parse(DateLayout, s.DateUpdated)
	if err != nil {
		return time.Time{}, malformed(fmt.Sprintf("%s %q не соответствует формату %s", keyDateUpdated, s.DateUpdated, DateLayout))
	}
	return t, nil
}

// ParseStatus validates a record and returns its notification text.
func ParseStatus(record any) (string, error) {
	s, err := ParseSubmission(record)
	if err != nil {
		return "", err
	}
	return s.Message()
}

// FormatMessage renders the status-change text for a homework name and verdict.
func FormatMessage(name, verdict string) string {
	return fmt.Sprintf(`Изменился статус проверки работы "%s". %s`, name, verdict)
}
