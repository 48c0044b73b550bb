// Package access derives the role-scoped parts of a document: what a student,
// teacher or parent gets to see.
package access

import "github.com/shrimpsizemoose/eduportal/internal/models"

// CoursesForUser returns the courses a student is enrolled in or a teacher
// owns. Other roles get nothing.
func CoursesForUser(doc *models.Document, userID int, role models.Role) []models.Course {
	courses := []models.Course{}
	for _, c := range doc.Courses {
		switch role {
		case models.RoleStudent:
			if c.HasStudent(userID) {
				courses = append(courses, c)
			}
		case models.RoleTeacher:
			if c.TaughtBy(userID) {
				courses = append(courses, c)
			}
		}
	}
	return courses
}

func AssignmentsForUser(doc *models.Document, userID int, role models.Role) []models.Assignment {
	return AssignmentsOfCourses(doc, CoursesForUser(doc, userID, role))
}

func AssignmentsOfCourses(doc *models.Document, courses []models.Course) []models.Assignment {
	ids := courseIDs(courses)
	assignments := []models.Assignment{}
	for _, a := range doc.Assignments {
		if ids[a.CourseID] {
			assignments = append(assignments, a)
		}
	}
	return assignments
}

func GradesForStudent(doc *models.Document, studentID int) []models.Grade {
	return GradesForStudents(doc, []int{studentID})
}

func GradesForStudents(doc *models.Document, studentIDs []int) []models.Grade {
	ids := idSet(studentIDs)
	grades := []models.Grade{}
	for _, g := range doc.Grades {
		if ids[g.StudentID] {
			grades = append(grades, g)
		}
	}
	return grades
}

func GradesForAssignments(doc *models.Document, assignments []models.Assignment) []models.Grade {
	ids := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		ids[a.ID] = true
	}
	grades := []models.Grade{}
	for _, g := range doc.Grades {
		if ids[g.AssignmentID] {
			grades = append(grades, g)
		}
	}
	return grades
}

// ChildrenOf returns the students listed as the parent's children, in
// document order. Stale ids and non-student users are skipped.
func ChildrenOf(doc *models.Document, parent *models.User) []models.User {
	children := []models.User{}
	if parent == nil {
		return children
	}
	for _, u := range doc.Users {
		if u.Type == models.RoleStudent && parent.HasChild(u.ID) {
			children = append(children, u)
		}
	}
	return children
}

func TeachersOf(doc *models.Document, courses []models.Course) []models.User {
	ids := make(map[int]bool)
	for _, c := range courses {
		if c.TeacherID != nil {
			ids[*c.TeacherID] = true
		}
	}
	teachers := []models.User{}
	for _, u := range doc.Users {
		if u.Type == models.RoleTeacher && ids[u.ID] {
			teachers = append(teachers, u)
		}
	}
	return teachers
}

// StudentsOf returns the distinct students enrolled in any of the courses.
func StudentsOf(doc *models.Document, courses []models.Course) []models.User {
	ids := make(map[int]bool)
	for _, c := range courses {
		for _, id := range c.Students {
			ids[id] = true
		}
	}
	students := []models.User{}
	for _, u := range doc.Users {
		if u.Type == models.RoleStudent && ids[u.ID] {
			students = append(students, u)
		}
	}
	return students
}

// CoursesOfStudents returns courses in which any of the students is enrolled.
func CoursesOfStudents(doc *models.Document, studentIDs []int) []models.Course {
	courses := []models.Course{}
	for _, c := range doc.Courses {
		for _, id := range studentIDs {
			if c.HasStudent(id) {
				courses = append(courses, c)
				break
			}
		}
	}
	return courses
}

// TeacherName resolves the display name of a course's teacher.
func TeacherName(doc *models.Document, course *models.Course) string {
	if course.TeacherID == nil {
		return models.TeacherUnassigned
	}
	if t := doc.UserWithRole(*course.TeacherID, models.RoleTeacher); t != nil {
		return t.Name
	}
	return models.TeacherUnknown
}

func UserIDs(users []models.User) []int {
	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func courseIDs(courses []models.Course) map[int]bool {
	ids := make(map[int]bool, len(courses))
	for _, c := range courses {
		ids[c.ID] = true
	}
	return ids
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
