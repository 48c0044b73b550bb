// internal/scoring/grader.go
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/shrimpsizemoose/eduportal/internal/access"
	"github.com/shrimpsizemoose/eduportal/internal/models"
)

// GPAStep maps every percentage at or above MinPercent to Points.
type GPAStep struct {
	MinPercent float64 `toml:"min_percent"`
	Points     float64 `toml:"points"`
}

var DefaultGPASteps = []GPAStep{
	{97, 4.0},
	{93, 3.7},
	{90, 3.3},
	{87, 3.0},
	{83, 2.7},
	{80, 2.3},
	{77, 2.0},
	{73, 1.7},
	{70, 1.3},
	{67, 1.0},
	{65, 0.7},
}

const DefaultLowGradePercent = 70

type Grader struct {
	GPASteps        []GPAStep `toml:"gpa_steps"`
	LowGradePercent float64   `toml:"low_grade_percent"`
}

func NewGrader(steps []GPAStep, lowGradePercent float64) *Grader {
	if len(steps) == 0 {
		steps = DefaultGPASteps
	}
	sorted := make([]GPAStep, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPercent > sorted[j].MinPercent })

	if lowGradePercent <= 0 {
		lowGradePercent = DefaultLowGradePercent
	}
	return &Grader{GPASteps: sorted, LowGradePercent: lowGradePercent}
}

// Points converts a percentage to grade points using the step table.
func (g *Grader) Points(percent float64) float64 {
	for _, step := range g.GPASteps {
		if percent >= step.MinPercent {
			return step.Points
		}
	}
	return 0
}

// CourseAverage is the rounded mean percentage of the student's grades in a
// course. ok is false when the student has no grades there.
func CourseAverage(doc *models.Document, studentID, courseID int) (avg int, ok bool) {
	total := 0.0
	n := 0
	for i := range doc.Grades {
		g := &doc.Grades[i]
		if g.StudentID == studentID && g.CourseID == courseID {
			total += g.Percent()
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return round(total / float64(n)), true
}

// GPA averages grade points over the student's enrolled courses that have at
// least one grade. Ungraded courses do not count towards the denominator.
func (g *Grader) GPA(doc *models.Document, studentID int) float64 {
	totalPoints := 0.0
	graded := 0
	for _, course := range access.CoursesForUser(doc, studentID, models.RoleStudent) {
		avg, ok := CourseAverage(doc, studentID, course.ID)
		if !ok {
			continue
		}
		totalPoints += g.Points(float64(avg))
		graded++
	}
	if graded == 0 {
		return 0
	}
	return totalPoints / float64(graded)
}

type Status string

const (
	StatusGraded  Status = "graded"
	StatusOverdue Status = "overdue"
	StatusPending Status = "pending"
)

// AssignmentStatus reports graded whenever a grade exists, even a late one.
// Only ungraded work can be overdue. A due date that does not parse never
// becomes overdue.
func AssignmentStatus(a *models.Assignment, grade *models.Grade, now time.Time) Status {
	if grade != nil {
		return StatusGraded
	}
	due, err := a.Due()
	if err == nil && now.After(due) {
		return StatusOverdue
	}
	return StatusPending
}

type EnrollmentStats struct {
	TotalCourses     int `json:"totalCourses"`
	TotalEnrollments int `json:"totalEnrollments"`
	AveragePerCourse int `json:"averagePerCourse"`
}

func CourseEnrollmentStats(courses []models.Course) EnrollmentStats {
	stats := EnrollmentStats{TotalCourses: len(courses)}
	for _, c := range courses {
		stats.TotalEnrollments += len(c.Students)
	}
	if len(courses) > 0 {
		stats.AveragePerCourse = round(float64(stats.TotalEnrollments) / float64(len(courses)))
	}
	return stats
}

// PendingGradeCount approximates how many grades are still missing in a
// course. Grades of students who left the course are still subtracted.
func PendingGradeCount(course *models.Course, assignments []models.Assignment, grades []models.Grade) int {
	nAssignments := 0
	for _, a := range assignments {
		if a.CourseID == course.ID {
			nAssignments++
		}
	}
	nGrades := 0
	for _, g := range grades {
		if g.CourseID == course.ID {
			nGrades++
		}
	}
	return max(0, nAssignments*len(course.Students)-nGrades)
}

// TeacherPendingGrades is the dashboard-wide version of PendingGradeCount over
// all of a teacher's assignments, students and grades.
func TeacherPendingGrades(assignments []models.Assignment, students []models.User, grades []models.Grade) int {
	return max(0, len(assignments)*len(students)-len(grades))
}

func UserTypeCounts(users []models.User) map[models.Role]int {
	counts := make(map[models.Role]int, len(models.Roles))
	for _, role := range models.Roles {
		counts[role] = 0
	}
	for _, u := range users {
		counts[u.Type]++
	}
	return counts
}

type GradeStats struct {
	TotalGrades  int `json:"totalGrades"`
	AverageGrade int `json:"averageGrade"`
	Assignments  int `json:"assignments"`
}

func ComputeGradeStats(doc *models.Document) GradeStats {
	stats := GradeStats{
		TotalGrades: len(doc.Grades),
		Assignments: len(doc.Assignments),
	}
	if len(doc.Grades) == 0 {
		return stats
	}
	total := 0.0
	for i := range doc.Grades {
		total += doc.Grades[i].Percent()
	}
	stats.AverageGrade = round(total / float64(len(doc.Grades)))
	return stats
}

// PendingAssignments counts ungraded assignments that are not yet past due.
func PendingAssignments(assignments []models.Assignment, grades []models.Grade, studentID int, now time.Time) int {
	count := 0
	for i := range assignments {
		a := &assignments[i]
		if findGrade(grades, studentID, a.ID) != nil {
			continue
		}
		due, err := a.Due()
		if err != nil {
			continue
		}
		if !due.Before(now) {
			count++
		}
	}
	return count
}

// UrgentItems counts, over all children, ungraded assignments past due and
// grades under the low grade threshold.
func (g *Grader) UrgentItems(doc *models.Document, children []models.User, now time.Time) int {
	urgent := 0
	for _, child := range children {
		for _, a := range access.AssignmentsForUser(doc, child.ID, models.RoleStudent) {
			if AssignmentStatus(&a, doc.GradeFor(child.ID, a.ID), now) == StatusOverdue {
				urgent++
			}
		}
		for _, grade := range access.GradesForStudent(doc, child.ID) {
			if grade.Percent() < g.LowGradePercent {
				urgent++
			}
		}
	}
	return urgent
}

type CalendarEvent struct {
	Title   string                `json:"title"`
	Course  string                `json:"course"`
	Child   string                `json:"child"`
	ChildID int                   `json:"childId"`
	Date    string                `json:"date"`
	Type    models.AssignmentKind `json:"type"`
	Status  Status                `json:"status"`

	due time.Time
}

const UnknownCourse = "Unknown Course"

// Calendar lists the assignments of every child as events ordered by due date.
func Calendar(doc *models.Document, children []models.User, now time.Time) []CalendarEvent {
	events := []CalendarEvent{}
	for _, child := range children {
		for _, a := range access.AssignmentsForUser(doc, child.ID, models.RoleStudent) {
			courseName := UnknownCourse
			if c := doc.Course(a.CourseID); c != nil {
				courseName = c.Name
			}
			due, _ := a.Due()
			events = append(events, CalendarEvent{
				Title:   a.Title,
				Course:  courseName,
				Child:   child.Name,
				ChildID: child.ID,
				Date:    a.DueDate,
				Type:    a.Type,
				Status:  AssignmentStatus(&a, doc.GradeFor(child.ID, a.ID), now),
				due:     due,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].due.Before(events[j].due) })
	return events
}

type GradeSheetEntry struct {
	StudentID    int           `json:"studentId"`
	Student      string        `json:"student"`
	CourseID     int           `json:"courseId"`
	Course       string        `json:"course"`
	AssignmentID int           `json:"assignmentId"`
	Assignment   string        `json:"assignment"`
	DueDate      string        `json:"dueDate"`
	Grade        *models.Grade `json:"grade"`
	Status       Status        `json:"status"`
}

// GradeSheet pairs every enrolled student of the courses with every
// assignment of that course. Enrollments of deleted users are skipped.
func GradeSheet(doc *models.Document, courses []models.Course) []GradeSheetEntry {
	entries := []GradeSheetEntry{}
	for _, course := range courses {
		assignments := access.AssignmentsOfCourses(doc, []models.Course{course})
		for _, studentID := range course.Students {
			student := doc.UserWithRole(studentID, models.RoleStudent)
			if student == nil {
				continue
			}
			for _, a := range assignments {
				entry := GradeSheetEntry{
					StudentID:    student.ID,
					Student:      student.Name,
					CourseID:     course.ID,
					Course:       course.Name,
					AssignmentID: a.ID,
					Assignment:   a.Title,
					DueDate:      a.DueDate,
					Status:       StatusPending,
				}
				if g := doc.GradeFor(student.ID, a.ID); g != nil {
					grade := *g
					entry.Grade = &grade
					entry.Status = StatusGraded
				}
				entries = append(entries, entry)
			}
		}
	}
	return entries
}

func findGrade(grades []models.Grade, studentID, assignmentID int) *models.Grade {
	for i := range grades {
		if grades[i].StudentID == studentID && grades[i].AssignmentID == assignmentID {
			return &grades[i]
		}
	}
	return nil
}

func round(v float64) int {
	return int(math.Round(v))
}
