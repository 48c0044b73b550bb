package models

import "time"

type Grade struct {
	ID           int        `json:"id"`
	StudentID    int        `json:"studentId" validate:"required"`
	CourseID     int        `json:"courseId" validate:"required"`
	AssignmentID int        `json:"assignmentId" validate:"required"`
	Score        int        `json:"grade" validate:"gte=0,ltefield=MaxGrade"`
	MaxGrade     int        `json:"maxGrade" validate:"gt=0"`
	Comments     string     `json:"comments,omitempty"`
	GradedAt     *time.Time `json:"gradedAt,omitempty"`
}

// Percent is the score as a 0-100 percentage of the max grade.
func (g *Grade) Percent() float64 {
	if g.MaxGrade <= 0 {
		return 0
	}
	return float64(g.Score) / float64(g.MaxGrade) * 100
}
