package models

import (
	"fmt"
	"time"
)

type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Type     Role   `json:"type"`
	Grade    string `json:"grade,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Children []int  `json:"children,omitempty"`
}

type UserUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Type  Role   `json:"type"`
}

type NewCourse struct {
	Name      string `json:"name"`
	TeacherID *int   `json:"teacherId"`
	Grade     string `json:"grade"`
	Students  []int  `json:"students"`
}

type NewAssignment struct {
	CourseID    int            `json:"courseId"`
	Title       string         `json:"title"`
	Type        AssignmentKind `json:"type"`
	DueDate     string         `json:"dueDate"`
	Description string         `json:"description,omitempty"`
	MaxGrade    int            `json:"maxGrade,omitempty"`
}

type GradeSubmission struct {
	StudentID    int    `json:"studentId"`
	AssignmentID int    `json:"assignmentId"`
	Score        int    `json:"grade"`
	Comments     string `json:"comments,omitempty"`
}

type NewNews struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

type NewMessage struct {
	ToID    int    `json:"toId"`
	ChildID int    `json:"childId"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

func (d *Document) AddUser(in NewUser) (*User, error) {
	if in.Password == "" {
		return nil, newValidationError(FieldError{Field: "Password", Error: "required"})
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Type:     in.Type,
	}
	switch in.Type {
	case RoleStudent:
		u.Grade = in.Grade
	case RoleTeacher:
		u.Subject = in.Subject
	case RoleParent:
		for _, id := range in.Children {
			if d.UserWithRole(id, RoleStudent) == nil {
				return nil, newValidationError(FieldError{
					Field: "Children",
					Error: fmt.Sprintf("user %d is not a student", id),
				})
			}
		}
		u.Children = dedupe(in.Children)
	}

	if err := validateStruct(&u); err != nil {
		return nil, err
	}
	if d.UserByEmail(u.Email) != nil {
		return nil, ErrEmailTaken
	}

	u.ID = d.NextID(CollectionUsers)
	d.Users = append(d.Users, u)
	return &d.Users[len(d.Users)-1], nil
}

func (d *Document) UpdateUser(id int, in UserUpdate) (*User, error) {
	u := d.User(id)
	if u == nil {
		return nil, notFound("user", id)
	}

	updated := *u
	updated.Name = in.Name
	updated.Email = in.Email
	updated.Type = in.Type
	if err := validateStruct(&updated); err != nil {
		return nil, err
	}
	if other := d.UserByEmail(in.Email); other != nil && other.ID != id {
		return nil, ErrEmailTaken
	}

	*u = updated
	return u, nil
}

// DeleteUser removes the user together with its enrollments, its grades and
// its place in parents' children lists. Courses it taught become unassigned.
func (d *Document) DeleteUser(id int) error {
	if d.User(id) == nil {
		return notFound("user", id)
	}

	users := d.Users[:0]
	for _, u := range d.Users {
		if u.ID == id {
			continue
		}
		if u.Type == RoleParent && u.HasChild(id) {
			u.Children = removeID(u.Children, id)
		}
		users = append(users, u)
	}
	d.Users = users

	for i := range d.Courses {
		c := &d.Courses[i]
		c.Students = removeID(c.Students, id)
		if c.TaughtBy(id) {
			c.TeacherID = nil
			c.Teacher = TeacherUnassigned
		}
	}

	d.Grades = filterGrades(d.Grades, func(g Grade) bool { return g.StudentID != id })
	return nil
}

func (d *Document) AddCourse(in NewCourse) (*Course, error) {
	c := Course{
		Name:      in.Name,
		TeacherID: in.TeacherID,
		Grade:     in.Grade,
		Students:  dedupe(in.Students),
		Teacher:   TeacherUnknown,
	}
	if c.Students == nil {
		c.Students = []int{}
	}
	if err := validateStruct(&c); err != nil {
		return nil, err
	}

	if in.TeacherID != nil {
		teacher := d.UserWithRole(*in.TeacherID, RoleTeacher)
		if teacher == nil {
			return nil, newValidationError(FieldError{
				Field: "TeacherID",
				Error: fmt.Sprintf("user %d is not a teacher", *in.TeacherID),
			})
		}
		c.Teacher = teacher.Name
	}
	for _, id := range c.Students {
		if d.UserWithRole(id, RoleStudent) == nil {
			return nil, newValidationError(FieldError{
				Field: "Students",
				Error: fmt.Sprintf("user %d is not a student", id),
			})
		}
	}

	c.ID = d.NextID(CollectionCourses)
	d.Courses = append(d.Courses, c)
	return &d.Courses[len(d.Courses)-1], nil
}

func (d *Document) DeleteCourse(id int) error {
	if d.Course(id) == nil {
		return notFound("course", id)
	}

	courses := d.Courses[:0]
	for _, c := range d.Courses {
		if c.ID != id {
			courses = append(courses, c)
		}
	}
	d.Courses = courses

	assignments := d.Assignments[:0]
	for _, a := range d.Assignments {
		if a.CourseID != id {
			assignments = append(assignments, a)
		}
	}
	d.Assignments = assignments

	d.Grades = filterGrades(d.Grades, func(g Grade) bool { return g.CourseID != id })
	return nil
}

func (d *Document) CreateAssignment(in NewAssignment) (*Assignment, error) {
	a := Assignment{
		CourseID:    in.CourseID,
		Title:       in.Title,
		Type:        in.Type,
		DueDate:     in.DueDate,
		Description: in.Description,
		MaxGrade:    in.MaxGrade,
	}
	if a.MaxGrade == 0 {
		a.MaxGrade = DefaultMaxGrade
	}
	if err := validateStruct(&a); err != nil {
		return nil, err
	}
	if _, err := a.Due(); err != nil {
		return nil, newValidationError(FieldError{Field: "DueDate", Error: err.Error()})
	}
	if d.Course(a.CourseID) == nil {
		return nil, notFound("course", a.CourseID)
	}

	a.ID = d.NextID(CollectionAssignments)
	d.Assignments = append(d.Assignments, a)
	return &d.Assignments[len(d.Assignments)-1], nil
}

func (d *Document) DeleteAssignment(id int) error {
	if d.Assignment(id) == nil {
		return notFound("assignment", id)
	}

	assignments := d.Assignments[:0]
	for _, a := range d.Assignments {
		if a.ID != id {
			assignments = append(assignments, a)
		}
	}
	d.Assignments = assignments

	d.Grades = filterGrades(d.Grades, func(g Grade) bool { return g.AssignmentID != id })
	return nil
}

// SubmitGrade creates the grade of a student for an assignment, or replaces
// the existing one while keeping its id. The assignment's max grade is copied
// into the grade.
func (d *Document) SubmitGrade(in GradeSubmission, now time.Time) (*Grade, error) {
	a := d.Assignment(in.AssignmentID)
	if a == nil {
		return nil, notFound("assignment", in.AssignmentID)
	}
	if d.UserWithRole(in.StudentID, RoleStudent) == nil {
		return nil, notFound("student", in.StudentID)
	}
	course := d.Course(a.CourseID)
	if course == nil {
		return nil, notFound("course", a.CourseID)
	}
	if !course.HasStudent(in.StudentID) {
		return nil, newValidationError(FieldError{
			Field: "StudentID",
			Error: fmt.Sprintf("student %d is not enrolled in course %d", in.StudentID, course.ID),
		})
	}

	gradedAt := now.UTC()
	g := Grade{
		StudentID:    in.StudentID,
		CourseID:     a.CourseID,
		AssignmentID: a.ID,
		Score:        in.Score,
		MaxGrade:     a.EffectiveMaxGrade(),
		Comments:     in.Comments,
		GradedAt:     &gradedAt,
	}
	if err := validateStruct(&g); err != nil {
		return nil, err
	}

	if existing := d.GradeFor(in.StudentID, a.ID); existing != nil {
		g.ID = existing.ID
		*existing = g
		return existing, nil
	}

	g.ID = d.NextID(CollectionGrades)
	d.Grades = append(d.Grades, g)
	return &d.Grades[len(d.Grades)-1], nil
}

// AddNews publishes a news item at the top of the list.
func (d *Document) AddNews(in NewNews, now time.Time) (*News, error) {
	n := News{
		Title:   in.Title,
		Content: in.Content,
		Author:  in.Author,
		Date:    FormatDate(now),
	}
	if err := validateStruct(&n); err != nil {
		return nil, err
	}

	n.ID = d.NextID(CollectionNews)
	d.News = append([]News{n}, d.News...)
	return &d.News[0], nil
}

func (d *Document) DeleteNews(id int) error {
	news := d.News[:0]
	found := false
	for _, n := range d.News {
		if n.ID == id {
			found = true
			continue
		}
		news = append(news, n)
	}
	if !found {
		return notFound("news", id)
	}
	d.News = news
	return nil
}

func (d *Document) SendMessage(from *User, in NewMessage, now time.Time) (*Message, error) {
	m := Message{
		From:    from.Name,
		FromID:  from.ID,
		ToID:    in.ToID,
		ChildID: in.ChildID,
		Subject: in.Subject,
		Content: in.Content,
		Date:    FormatDate(now),
	}
	if err := validateStruct(&m); err != nil {
		return nil, err
	}

	to := d.User(in.ToID)
	if to == nil {
		return nil, notFound("user", in.ToID)
	}
	m.To = to.Name

	m.ID = d.NextID(CollectionCommunications)
	d.Communications = append([]Message{m}, d.Communications...)
	return &d.Communications[0], nil
}

// MarkMessageRead flags a message as read. Only its recipient may do that.
func (d *Document) MarkMessageRead(id, readerID int) error {
	m := d.Message(id)
	if m == nil {
		return notFound("message", id)
	}
	if m.ToID != readerID {
		return ErrForbidden
	}
	m.Read = true
	return nil
}

// Authenticate finds a user by email or name whose password and role match.
func (d *Document) Authenticate(login, password string, role Role) (*User, error) {
	for i := range d.Users {
		u := &d.Users[i]
		if (u.Email == login || u.Name == login) && u.Type == role && u.CheckPassword(password) {
			return u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func filterGrades(grades []Grade, keep func(Grade) bool) []Grade {
	out := grades[:0]
	for _, g := range grades {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

func dedupe(ids []int) []int {
	if ids == nil {
		return nil
	}
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
