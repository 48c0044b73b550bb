package models

import (
	"fmt"
	"time"
)

const DefaultMaxGrade = 100

type AssignmentKind string

const (
	KindHomework AssignmentKind = "homework"
	KindExam     AssignmentKind = "exam"
)

type Assignment struct {
	ID          int            `json:"id"`
	CourseID    int            `json:"courseId" validate:"required"`
	Title       string         `json:"title" validate:"required"`
	Type        AssignmentKind `json:"type" validate:"required,oneof=homework exam"`
	DueDate     string         `json:"dueDate" validate:"required"`
	Description string         `json:"description,omitempty"`
	MaxGrade    int            `json:"maxGrade,omitempty" validate:"gte=0"`
}

// EffectiveMaxGrade falls back to DefaultMaxGrade when maxGrade is absent.
func (a *Assignment) EffectiveMaxGrade() int {
	if a.MaxGrade <= 0 {
		return DefaultMaxGrade
	}
	return a.MaxGrade
}

func (a *Assignment) Due() (time.Time, error) {
	return ParseDate(a.DueDate)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate reads date-only due dates as midnight UTC. Timestamps must carry
// an explicit offset.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed date %q", s)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
