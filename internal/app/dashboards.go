package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shrimpsizemoose/eduportal/internal/access"
	"github.com/shrimpsizemoose/eduportal/internal/models"
	"github.com/shrimpsizemoose/eduportal/internal/scoring"
)

// CourseSummary is a course as seen by one student. Average is nil while the
// student has no grades in the course.
type CourseSummary struct {
	Course  models.Course `json:"course"`
	Teacher string        `json:"teacher"`
	Average *int          `json:"average"`
}

type AssignmentView struct {
	Assignment models.Assignment `json:"assignment"`
	Course     string            `json:"course"`
	Status     scoring.Status    `json:"status"`
	Grade      *models.Grade     `json:"grade"`
}

type StudentDashboard struct {
	Student            models.User      `json:"student"`
	GPA                float64          `json:"gpa"`
	PendingAssignments int              `json:"pendingAssignments"`
	Courses            []CourseSummary  `json:"courses"`
	Assignments        []AssignmentView `json:"assignments"`
	News               []models.News    `json:"news"`
}

type TeacherCourse struct {
	Course        models.Course `json:"course"`
	Assignments   int           `json:"assignments"`
	PendingGrades int           `json:"pendingGrades"`
}

type TeacherDashboard struct {
	Teacher       models.User               `json:"teacher"`
	PendingGrades int                       `json:"pendingGrades"`
	Courses       []TeacherCourse           `json:"courses"`
	Students      []models.User             `json:"students"`
	Assignments   []models.Assignment       `json:"assignments"`
	GradeSheet    []scoring.GradeSheetEntry `json:"gradeSheet"`
	Messages      []models.Message          `json:"messages"`
	News          []models.News             `json:"news"`
}

type ChildSummary struct {
	Child       models.User      `json:"child"`
	GPA         float64          `json:"gpa"`
	Courses     []CourseSummary  `json:"courses"`
	Assignments []AssignmentView `json:"assignments"`
}

type ParentDashboard struct {
	Parent         models.User             `json:"parent"`
	UrgentItems    int                     `json:"urgentItems"`
	UnreadMessages int                     `json:"unreadMessages"`
	Children       []ChildSummary          `json:"children"`
	Teachers       []models.User           `json:"teachers"`
	Calendar       []scoring.CalendarEvent `json:"calendar"`
	Messages       []models.Message        `json:"messages"`
	News           []models.News           `json:"news"`
}

type CourseRow struct {
	Course  models.Course `json:"course"`
	Teacher string        `json:"teacher"`
}

type Report struct {
	Users       map[models.Role]int     `json:"users"`
	Enrollment  scoring.EnrollmentStats `json:"enrollment"`
	Grades      scoring.GradeStats      `json:"grades"`
	GeneratedAt string                  `json:"generatedAt"`
}

type AdminDashboard struct {
	Admin   models.User   `json:"admin"`
	Report  Report        `json:"report"`
	Users   []models.User `json:"users"`
	Courses []CourseRow   `json:"courses"`
	News    []models.News `json:"news"`
}

// Dashboard assembles the view of the given user's role.
func (s *Service) Dashboard(doc *models.Document, user *models.User) (any, error) {
	switch user.Type {
	case models.RoleStudent:
		return s.StudentDashboard(doc, user), nil
	case models.RoleTeacher:
		return s.TeacherDashboard(doc, user), nil
	case models.RoleParent:
		return s.ParentDashboard(doc, user), nil
	case models.RoleAdmin:
		return s.AdminDashboard(doc, user), nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrForbidden, user.Type)
	}
}

func (s *Service) StudentDashboard(doc *models.Document, student *models.User) *StudentDashboard {
	now := s.now()
	assignments := access.AssignmentsForUser(doc, student.ID, models.RoleStudent)
	return &StudentDashboard{
		Student:            student.Public(),
		GPA:                s.Grader.GPA(doc, student.ID),
		PendingAssignments: scoring.PendingAssignments(assignments, access.GradesForStudent(doc, student.ID), student.ID, now),
		Courses:            courseSummaries(doc, student.ID),
		Assignments:        assignmentViews(doc, student.ID, assignments, now),
		News:               doc.News,
	}
}

func courseSummaries(doc *models.Document, studentID int) []CourseSummary {
	courses := access.CoursesForUser(doc, studentID, models.RoleStudent)
	out := make([]CourseSummary, 0, len(courses))
	for i := range courses {
		summary := CourseSummary{
			Course:  courses[i],
			Teacher: access.TeacherName(doc, &courses[i]),
		}
		if avg, ok := scoring.CourseAverage(doc, studentID, courses[i].ID); ok {
			summary.Average = &avg
		}
		out = append(out, summary)
	}
	return out
}

func assignmentViews(doc *models.Document, studentID int, assignments []models.Assignment, now time.Time) []AssignmentView {
	out := make([]AssignmentView, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		view := AssignmentView{
			Assignment: *a,
			Course:     scoring.UnknownCourse,
		}
		if c := doc.Course(a.CourseID); c != nil {
			view.Course = c.Name
		}
		grade := doc.GradeFor(studentID, a.ID)
		if grade != nil {
			g := *grade
			view.Grade = &g
		}
		view.Status = scoring.AssignmentStatus(a, grade, now)
		out = append(out, view)
	}
	return out
}

func (s *Service) TeacherDashboard(doc *models.Document, teacher *models.User) *TeacherDashboard {
	courses := access.CoursesForUser(doc, teacher.ID, models.RoleTeacher)
	assignments := access.AssignmentsOfCourses(doc, courses)
	students := access.StudentsOf(doc, courses)
	grades := access.GradesForAssignments(doc, assignments)

	rows := make([]TeacherCourse, 0, len(courses))
	for i := range courses {
		n := 0
		for _, a := range assignments {
			if a.CourseID == courses[i].ID {
				n++
			}
		}
		rows = append(rows, TeacherCourse{
			Course:        courses[i],
			Assignments:   n,
			PendingGrades: scoring.PendingGradeCount(&courses[i], assignments, grades),
		})
	}

	return &TeacherDashboard{
		Teacher:       teacher.Public(),
		PendingGrades: scoring.TeacherPendingGrades(assignments, students, grades),
		Courses:       rows,
		Students:      publicUsers(students),
		Assignments:   assignments,
		GradeSheet:    scoring.GradeSheet(doc, courses),
		Messages:      messagesOf(doc, teacher.ID),
		News:          doc.News,
	}
}

func (s *Service) ParentDashboard(doc *models.Document, parent *models.User) *ParentDashboard {
	now := s.now()
	children := access.ChildrenOf(doc, parent)

	summaries := make([]ChildSummary, 0, len(children))
	for i := range children {
		child := &children[i]
		summaries = append(summaries, ChildSummary{
			Child:       child.Public(),
			GPA:         s.Grader.GPA(doc, child.ID),
			Courses:     courseSummaries(doc, child.ID),
			Assignments: assignmentViews(doc, child.ID, access.AssignmentsForUser(doc, child.ID, models.RoleStudent), now),
		})
	}

	courses := access.CoursesOfStudents(doc, access.UserIDs(children))
	messages := messagesOf(doc, parent.ID)
	unread := 0
	for _, m := range messages {
		if m.ToID == parent.ID && !m.Read {
			unread++
		}
	}

	return &ParentDashboard{
		Parent:         parent.Public(),
		UrgentItems:    s.Grader.UrgentItems(doc, children, now),
		UnreadMessages: unread,
		Children:       summaries,
		Teachers:       publicUsers(access.TeachersOf(doc, courses)),
		Calendar:       scoring.Calendar(doc, children, now),
		Messages:       messages,
		News:           doc.News,
	}
}

func (s *Service) AdminDashboard(doc *models.Document, admin *models.User) *AdminDashboard {
	rows := make([]CourseRow, 0, len(doc.Courses))
	for i := range doc.Courses {
		rows = append(rows, CourseRow{Course: doc.Courses[i], Teacher: access.TeacherName(doc, &doc.Courses[i])})
	}
	return &AdminDashboard{
		Admin:   admin.Public(),
		Report:  s.Report(doc),
		Users:   publicUsers(doc.Users),
		Courses: rows,
		News:    doc.News,
	}
}

func (s *Service) Report(doc *models.Document) Report {
	return Report{
		Users:       scoring.UserTypeCounts(doc.Users),
		Enrollment:  scoring.CourseEnrollmentStats(doc.Courses),
		Grades:      scoring.ComputeGradeStats(doc),
		GeneratedAt: s.now().UTC().Format(s.Config.Display.TimestampFormat),
	}
}

type StudentReport struct {
	Student models.User     `json:"student"`
	GPA     float64         `json:"gpa"`
	Courses []CourseSummary `json:"courses"`
}

// StudentReport looks a student up by email for staff reporting.
func (s *Service) StudentReport(ctx context.Context, email string) (*StudentReport, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	student, err := studentByEmail(doc, email)
	if err != nil {
		return nil, err
	}
	return &StudentReport{
		Student: student.Public(),
		GPA:     s.Grader.GPA(doc, student.ID),
		Courses: courseSummaries(doc, student.ID),
	}, nil
}

// OverdueAssignments lists ungraded past due work of a student.
func (s *Service) OverdueAssignments(ctx context.Context, email string) ([]AssignmentView, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	student, err := studentByEmail(doc, email)
	if err != nil {
		return nil, err
	}
	views := assignmentViews(doc, student.ID, access.AssignmentsForUser(doc, student.ID, models.RoleStudent), s.now())
	overdue := make([]AssignmentView, 0, len(views))
	for _, v := range views {
		if v.Status == scoring.StatusOverdue {
			overdue = append(overdue, v)
		}
	}
	return overdue, nil
}

func studentByEmail(doc *models.Document, email string) (*models.User, error) {
	u := doc.UserByEmail(strings.TrimSpace(email))
	if u == nil || u.Type != models.RoleStudent {
		return nil, fmt.Errorf("student %s: %w", email, models.ErrNotFound)
	}
	return u, nil
}

func messagesOf(doc *models.Document, userID int) []models.Message {
	out := []models.Message{}
	for _, m := range doc.Communications {
		if m.FromID == userID || m.ToID == userID {
			out = append(out, m)
		}
	}
	return out
}

func publicUsers(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
