package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shrimpsizemoose/eduportal/internal/models"
)

func intPtr(v int) *int { return &v }

func testDocument() *models.Document {
	doc := models.NewDocument()
	doc.Users = []models.User{
		{ID: 1, Name: "Administrator", Type: models.RoleAdmin},
		{ID: 2, Name: "Sarah Wilson", Type: models.RoleTeacher},
		{ID: 3, Name: "Mike Brown", Type: models.RoleTeacher},
		{ID: 4, Name: "John Doe", Type: models.RoleStudent},
		{ID: 5, Name: "Alice Smith", Type: models.RoleStudent},
		{ID: 6, Name: "Jane Doe", Type: models.RoleParent, Children: []int{4, 42, 2}},
	}
	doc.Courses = []models.Course{
		{ID: 1, Name: "Algebra", TeacherID: intPtr(2), Students: []int{4, 5}},
		{ID: 2, Name: "Biology", TeacherID: intPtr(3), Students: []int{5}},
		{ID: 3, Name: "Chemistry", TeacherID: nil, Students: []int{4}},
		{ID: 4, Name: "Drama", TeacherID: intPtr(77), Students: []int{}},
	}
	doc.Assignments = []models.Assignment{
		{ID: 1, CourseID: 1, Title: "Quadratics"},
		{ID: 2, CourseID: 2, Title: "Cells"},
		{ID: 3, CourseID: 3, Title: "Atoms"},
	}
	doc.Grades = []models.Grade{
		{ID: 1, StudentID: 4, CourseID: 1, AssignmentID: 1, Score: 90, MaxGrade: 100},
		{ID: 2, StudentID: 5, CourseID: 2, AssignmentID: 2, Score: 70, MaxGrade: 100},
	}
	return doc
}

func courseNames(courses []models.Course) []string {
	names := []string{}
	for _, c := range courses {
		names = append(names, c.Name)
	}
	return names
}

func TestCoursesForUser(t *testing.T) {
	doc := testDocument()

	testCases := []struct {
		name     string
		userID   int
		role     models.Role
		expected []string
	}{
		{"student sees enrolled courses", 4, models.RoleStudent, []string{"Algebra", "Chemistry"}},
		{"teacher sees owned courses", 3, models.RoleTeacher, []string{"Biology"}},
		{"parent sees nothing", 6, models.RoleParent, []string{}},
		{"admin sees nothing", 1, models.RoleAdmin, []string{}},
		{"unknown student", 99, models.RoleStudent, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, courseNames(CoursesForUser(doc, tc.userID, tc.role)))
		})
	}
}

func TestAssignmentsForUser(t *testing.T) {
	doc := testDocument()

	assignments := AssignmentsForUser(doc, 4, models.RoleStudent)
	assert.Len(t, assignments, 2)
	assert.Equal(t, "Quadratics", assignments[0].Title)
	assert.Equal(t, "Atoms", assignments[1].Title)

	assert.NotNil(t, AssignmentsForUser(doc, 1, models.RoleAdmin))
	assert.Empty(t, AssignmentsForUser(doc, 1, models.RoleAdmin))
}

func TestGradeFilters(t *testing.T) {
	doc := testDocument()

	assert.Len(t, GradesForStudent(doc, 4), 1)
	assert.Len(t, GradesForStudents(doc, []int{4, 5}), 2)
	assert.Empty(t, GradesForStudent(doc, 99))

	grades := GradesForAssignments(doc, doc.Assignments[1:2])
	assert.Len(t, grades, 1)
	assert.Equal(t, 5, grades[0].StudentID)
}

func TestChildrenOf(t *testing.T) {
	doc := testDocument()

	children := ChildrenOf(doc, doc.User(6))
	assert.Len(t, children, 1, "stale ids and non-students are skipped")
	assert.Equal(t, "John Doe", children[0].Name)

	assert.Empty(t, ChildrenOf(doc, nil))
	assert.Empty(t, ChildrenOf(doc, doc.User(1)))
}

func TestTeachersOf(t *testing.T) {
	doc := testDocument()

	teachers := TeachersOf(doc, CoursesForUser(doc, 5, models.RoleStudent))
	assert.Len(t, teachers, 2)

	teachers = TeachersOf(doc, doc.Courses[2:])
	assert.Empty(t, teachers, "unassigned and deleted teachers are not returned")
}

func TestStudentsOfAndCoursesOfStudents(t *testing.T) {
	doc := testDocument()

	students := StudentsOf(doc, doc.Courses[:2])
	assert.Equal(t, []int{4, 5}, UserIDs(students))

	assert.Equal(t, []string{"Algebra", "Chemistry"}, courseNames(CoursesOfStudents(doc, []int{4})))
	assert.Equal(t, []string{"Algebra", "Biology", "Chemistry"}, courseNames(CoursesOfStudents(doc, []int{4, 5})))
}

func TestTeacherName(t *testing.T) {
	doc := testDocument()

	assert.Equal(t, "Sarah Wilson", TeacherName(doc, doc.Course(1)))
	assert.Equal(t, models.TeacherUnassigned, TeacherName(doc, doc.Course(3)))
	assert.Equal(t, models.TeacherUnknown, TeacherName(doc, doc.Course(4)))
}
