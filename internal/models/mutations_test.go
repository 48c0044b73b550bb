package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

// seeded builds a document through the mutations: teacher 2, students 3 and
// 4, parent 5 of student 3, one course and one assignment.
func seeded(t *testing.T) *Document {
	t.Helper()
	doc := NewDocument()

	mustUser := func(in NewUser) *User {
		u, err := doc.AddUser(in)
		require.NoError(t, err)
		return u
	}
	mustUser(NewUser{Name: "Administrator", Email: "admin@school.edu", Password: "admin123", Type: RoleAdmin})
	mustUser(NewUser{Name: "Sarah Wilson", Email: "sarah@school.edu", Password: "pw", Type: RoleTeacher, Subject: "Math"})
	mustUser(NewUser{Name: "John Doe", Email: "john@school.edu", Password: "pw", Type: RoleStudent, Grade: "10"})
	mustUser(NewUser{Name: "Alice Smith", Email: "alice@school.edu", Password: "pw", Type: RoleStudent, Grade: "10"})
	mustUser(NewUser{Name: "Jane Doe", Email: "jane@school.edu", Password: "pw", Type: RoleParent, Children: []int{3}})

	_, err := doc.AddCourse(NewCourse{Name: "Algebra", TeacherID: intPtr(2), Grade: "10", Students: []int{3, 4}})
	require.NoError(t, err)
	_, err = doc.CreateAssignment(NewAssignment{CourseID: 1, Title: "Quadratics", Type: KindHomework, DueDate: "2024-03-01"})
	require.NoError(t, err)
	return doc
}

func TestAddUser(t *testing.T) {
	doc := seeded(t)

	t.Run("hashes the password and allocates the next id", func(t *testing.T) {
		u, err := doc.AddUser(NewUser{Name: "Bob", Email: "bob@school.edu", Password: "secret", Type: RoleStudent, Grade: "9", Subject: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, 6, u.ID)
		assert.NotEqual(t, "secret", u.Password)
		assert.True(t, u.CheckPassword("secret"))
		assert.Empty(t, u.Subject, "role specific fields of other roles are dropped")
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := doc.AddUser(NewUser{Name: "Other", Email: "john@school.edu", Password: "pw", Type: RoleStudent})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	testCases := []struct {
		name  string
		in    NewUser
		field string
	}{
		{"missing name", NewUser{Email: "x@school.edu", Password: "pw", Type: RoleStudent}, "Name"},
		{"bad email", NewUser{Name: "X", Email: "not-an-email", Password: "pw", Type: RoleStudent}, "Email"},
		{"unknown role", NewUser{Name: "X", Email: "x@school.edu", Password: "pw", Type: "janitor"}, "Type"},
		{"missing password", NewUser{Name: "X", Email: "x@school.edu", Type: RoleStudent}, "Password"},
		{"child is not a student", NewUser{Name: "X", Email: "x@school.edu", Password: "pw", Type: RoleParent, Children: []int{2}}, "Children"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := doc.AddUser(tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	doc := seeded(t)

	u, err := doc.UpdateUser(3, UserUpdate{Name: "Johnny Doe", Email: "johnny@school.edu", Type: RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "Johnny Doe", doc.User(3).Name)
	assert.Equal(t, "10", u.Grade, "role fields survive an update")

	_, err = doc.UpdateUser(3, UserUpdate{Name: "Johnny Doe", Email: "alice@school.edu", Type: RoleStudent})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = doc.UpdateUser(3, UserUpdate{Name: "", Email: "johnny@school.edu", Type: RoleStudent})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "Johnny Doe", doc.User(3).Name, "failed update leaves the user alone")

	_, err = doc.UpdateUser(99, UserUpdate{Name: "X", Email: "x@school.edu", Type: RoleStudent})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser_Student(t *testing.T) {
	doc := seeded(t)
	_, err := doc.SubmitGrade(GradeSubmission{StudentID: 3, AssignmentID: 1, Score: 90}, now)
	require.NoError(t, err)
	_, err = doc.SubmitGrade(GradeSubmission{StudentID: 4, AssignmentID: 1, Score: 80}, now)
	require.NoError(t, err)

	require.NoError(t, doc.DeleteUser(3))

	assert.Nil(t, doc.User(3))
	assert.Equal(t, []int{4}, doc.Course(1).Students)
	require.Len(t, doc.Grades, 1)
	assert.Equal(t, 4, doc.Grades[0].StudentID)
	assert.Len(t, doc.Assignments, 1, "assignments are untouched")
	assert.Empty(t, doc.User(5).Children)

	assert.ErrorIs(t, doc.DeleteUser(3), ErrNotFound)
}

func TestDeleteUser_Teacher(t *testing.T) {
	doc := seeded(t)

	require.NoError(t, doc.DeleteUser(2))

	c := doc.Course(1)
	assert.Nil(t, c.TeacherID)
	assert.Equal(t, TeacherUnassigned, c.Teacher)
}

func TestAddCourse(t *testing.T) {
	doc := seeded(t)

	c, err := doc.AddCourse(NewCourse{Name: "Biology", Students: []int{3, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, c.ID)
	assert.Equal(t, []int{3, 4}, c.Students)
	assert.Equal(t, TeacherUnknown, c.Teacher)

	_, err = doc.AddCourse(NewCourse{Name: "Chemistry", TeacherID: intPtr(3)})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = doc.AddCourse(NewCourse{Name: "Chemistry", Students: []int{2}})
	assert.ErrorAs(t, err, &verr)

	_, err = doc.AddCourse(NewCourse{Name: ""})
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteCourse(t *testing.T) {
	doc := seeded(t)
	_, err := doc.AddCourse(NewCourse{Name: "Biology", Students: []int{3}})
	require.NoError(t, err)
	_, err = doc.CreateAssignment(NewAssignment{CourseID: 2, Title: "Cells", Type: KindExam, DueDate: "2024-04-01"})
	require.NoError(t, err)
	_, err = doc.SubmitGrade(GradeSubmission{StudentID: 3, AssignmentID: 1, Score: 90}, now)
	require.NoError(t, err)
	_, err = doc.SubmitGrade(GradeSubmission{StudentID: 3, AssignmentID: 2, Score: 70}, now)
	require.NoError(t, err)

	require.NoError(t, doc.DeleteCourse(1))

	assert.Nil(t, doc.Course(1))
	require.Len(t, doc.Assignments, 1)
	assert.Equal(t, 2, doc.Assignments[0].CourseID)
	require.Len(t, doc.Grades, 1)
	assert.Equal(t, 2, doc.Grades[0].CourseID)

	assert.ErrorIs(t, doc.DeleteCourse(1), ErrNotFound)
}

func TestCreateAssignment(t *testing.T) {
	doc := seeded(t)

	a := doc.Assignment(1)
	require.NotNil(t, a)
	assert.Equal(t, DefaultMaxGrade, a.MaxGrade)

	_, err := doc.CreateAssignment(NewAssignment{CourseID: 1, Title: "Essay", Type: KindHomework, DueDate: "31/12/2024"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "DueDate", verr.Fields[0].Field)

	_, err = doc.CreateAssignment(NewAssignment{CourseID: 1, Title: "Essay", Type: "quiz", DueDate: "2024-12-31"})
	assert.ErrorAs(t, err, &verr)

	_, err = doc.CreateAssignment(NewAssignment{CourseID: 42, Title: "Essay", Type: KindHomework, DueDate: "2024-12-31"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAssignment(t *testing.T) {
	doc := seeded(t)
	_, err := doc.SubmitGrade(GradeSubmission{StudentID: 3, AssignmentID: 1, Score: 90}, now)
	require.NoError(t, err)

	require.NoError(t, doc.DeleteAssignment(1))
	assert.Empty(t, doc.Assignments)
	assert.Empty(t, doc.Grades)
	assert.ErrorIs(t, doc.DeleteAssignment(1), ErrNotFound)
}

func TestSubmitGrade(t *testing.T) {
	doc := seeded(t)
	doc.Assignment(1).MaxGrade = 50

	g, err := doc.SubmitGrade(GradeSubmission{StudentID: 3, AssignmentID: 1, Score: 45, Comments: "good"}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, g.ID)
	assert.Equal(t, 1, g.CourseID)
	assert.Equal(t, 50, g.MaxGrade)
	require.NotNil(t, g.GradedAt)
	assert.True(t, g.GradedAt.Equal(now))

	t.Run("resubmission replaces and keeps the id", func(t *testing.T) {
		g, err := doc.SubmitGrade(GradeSubmission{StudentID: 3, AssignmentID: 1, Score: 30}, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, g.ID)
		assert.Len(t, doc.Grades, 1)
		assert.Equal(t, 30, doc.Grades[0].Score)
		assert.Empty(t, doc.Grades[0].Comments)
	})

	t.Run("max grade is copied, not referenced", func(t *testing.T) {
		doc.Assignment(1).MaxGrade = 100
		assert.Equal(t, 50, doc.Grades[0].MaxGrade)
	})

	testCases := []struct {
		name string
		in   GradeSubmission
		want error
	}{
		{"above max", GradeSubmission{StudentID: 4, AssignmentID: 1, Score: 101}, &ValidationError{}},
		{"negative", GradeSubmission{StudentID: 4, AssignmentID: 1, Score: -1}, &ValidationError{}},
		{"unknown assignment", GradeSubmission{StudentID: 4, AssignmentID: 9, Score: 1}, ErrNotFound},
		{"not a student", GradeSubmission{StudentID: 2, AssignmentID: 1, Score: 1}, ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := doc.SubmitGrade(tc.in, now)
			require.Error(t, err)
			if errors.Is(tc.want, ErrNotFound) {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	t.Run("student must be enrolled", func(t *testing.T) {
		doc.Course(1).Students = []int{3}
		_, err := doc.SubmitGrade(GradeSubmission{StudentID: 4, AssignmentID: 1, Score: 10}, now)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestNews(t *testing.T) {
	doc := seeded(t)

	first, err := doc.AddNews(NewNews{Title: "Welcome", Content: "Hello", Author: "Office"}, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", first.Date)

	second, err := doc.AddNews(NewNews{Title: "Exams", Content: "Soon", Author: "Office"}, now)
	require.NoError(t, err)
	assert.Equal(t, "Exams", doc.News[0].Title, "newest first")
	assert.Equal(t, 2, second.ID)

	_, err = doc.AddNews(NewNews{Title: "", Content: "x", Author: "y"}, now)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, doc.DeleteNews(first.ID))
	assert.Len(t, doc.News, 1)
	assert.ErrorIs(t, doc.DeleteNews(first.ID), ErrNotFound)
}

func TestMessages(t *testing.T) {
	doc := seeded(t)
	parent := doc.User(5)

	m, err := doc.SendMessage(parent, NewMessage{ToID: 2, ChildID: 3, Subject: "Homework", Content: "How is John doing?"}, now)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Wilson", m.To)
	assert.Equal(t, "Jane Doe", m.From)
	assert.False(t, m.Read)

	_, err = doc.SendMessage(parent, NewMessage{ToID: 42, ChildID: 3, Subject: "x", Content: "y"}, now)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, doc.MarkMessageRead(m.ID, parent.ID), ErrForbidden)
	require.NoError(t, doc.MarkMessageRead(m.ID, 2))
	assert.True(t, doc.Message(m.ID).Read)
	assert.ErrorIs(t, doc.MarkMessageRead(99, 2), ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	doc := seeded(t)
	doc.Users = append(doc.Users, User{ID: 50, Name: "Legacy", Email: "legacy@school.edu", Password: "plain", Type: RoleTeacher})

	testCases := []struct {
		name     string
		login    string
		password string
		role     Role
		wantID   int
	}{
		{"by email", "john@school.edu", "pw", RoleStudent, 3},
		{"by name", "John Doe", "pw", RoleStudent, 3},
		{"legacy plaintext password", "legacy@school.edu", "plain", RoleTeacher, 50},
		{"wrong role", "john@school.edu", "pw", RoleTeacher, 0},
		{"wrong password", "john@school.edu", "nope", RoleStudent, 0},
		{"unknown login", "nobody", "pw", RoleStudent, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := doc.Authenticate(tc.login, tc.password, tc.role)
			if tc.wantID == 0 {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, u.ID)
		})
	}
}

func TestNextID_NeverReusesIDs(t *testing.T) {
	doc := seeded(t)

	require.NoError(t, doc.DeleteUser(5))
	require.NoError(t, doc.DeleteUser(4))

	u, err := doc.AddUser(NewUser{Name: "Bob", Email: "bob@school.edu", Password: "pw", Type: RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 6, u.ID)
	assert.Equal(t, 6, doc.Sequences[CollectionUsers])
}

func TestNextID_SeedsFromExistingIDs(t *testing.T) {
	doc := NewDocument()
	doc.Courses = []Course{{ID: 4}, {ID: 9}, {ID: 2}}

	assert.Equal(t, 10, doc.NextID(CollectionCourses))
	assert.Equal(t, 11, doc.NextID(CollectionCourses))
	assert.Equal(t, 1, doc.NextID(CollectionNews))
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc := seeded(t)
	_, err := doc.SubmitGrade(GradeSubmission{StudentID: 3, AssignmentID: 1, Score: 90, Comments: "well done"}, now)
	require.NoError(t, err)
	_, err = doc.SendMessage(doc.User(5), NewMessage{ToID: 2, ChildID: 3, Subject: "Hi", Content: "Hello"}, now)
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc, &back)
}

func TestDocument_ReadsOriginalLayout(t *testing.T) {
	raw := `{
		"users": [{"id": 1, "name": "Administrator", "email": "admin@school.edu", "password": "admin123", "type": "admin"}],
		"courses": [{"id": 1, "name": "Algebra", "teacher": "Unknown", "teacherId": null, "grade": "10", "students": [1]}],
		"assignments": [{"id": 1, "courseId": 1, "title": "Quiz", "type": "exam", "dueDate": "2024-01-10"}],
		"grades": [{"id": 1, "studentId": 1, "courseId": 1, "assignmentId": 1, "grade": 40, "maxGrade": 50}],
		"news": []
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	doc.Normalize()

	assert.NotNil(t, doc.Communications)
	assert.Nil(t, doc.Courses[0].TeacherID)
	assert.Equal(t, DefaultMaxGrade, doc.Assignments[0].EffectiveMaxGrade())
	assert.Equal(t, 80.0, doc.Grades[0].Percent())
	assert.Equal(t, 2, doc.NextID(CollectionUsers))
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{input: "2024-03-15", expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{input: "2024-03-15T09:30:00+02:00", expected: time.Date(2024, 3, 15, 7, 30, 0, 0, time.UTC)},
		{input: "2024-03-15T09:30", wantErr: true},
		{input: "15/03/2024", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %v", got)
		})
	}
}
