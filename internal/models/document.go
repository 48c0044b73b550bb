package models

// Collection names, also used as keys of Document.Sequences.
const (
	CollectionUsers          = "users"
	CollectionCourses        = "courses"
	CollectionAssignments    = "assignments"
	CollectionGrades         = "grades"
	CollectionNews           = "news"
	CollectionCommunications = "communications"
)

// Document is the whole domain store. It is loaded and saved as one JSON value.
type Document struct {
	Users          []User         `json:"users"`
	Courses        []Course       `json:"courses"`
	Assignments    []Assignment   `json:"assignments"`
	Grades         []Grade        `json:"grades"`
	News           []News         `json:"news"`
	Communications []Message      `json:"communications"`
	Sequences      map[string]int `json:"sequences,omitempty"`
}

func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize replaces nil collections with empty ones so that a saved document
// always carries every collection.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Courses == nil {
		d.Courses = []Course{}
	}
	if d.Assignments == nil {
		d.Assignments = []Assignment{}
	}
	if d.Grades == nil {
		d.Grades = []Grade{}
	}
	if d.News == nil {
		d.News = []News{}
	}
	if d.Communications == nil {
		d.Communications = []Message{}
	}
	for i := range d.Courses {
		if d.Courses[i].Students == nil {
			d.Courses[i].Students = []int{}
		}
	}
}

// NextID allocates the next identifier of a collection. The counter only
// grows, so ids freed by deletes are never handed out again. Documents without
// sequences start from the highest id present.
func (d *Document) NextID(collection string) int {
	if d.Sequences == nil {
		d.Sequences = make(map[string]int)
	}
	last := d.Sequences[collection]
	if m := d.maxID(collection); m > last {
		last = m
	}
	last++
	d.Sequences[collection] = last
	return last
}

func (d *Document) maxID(collection string) int {
	max := 0
	bump := func(id int) {
		if id > max {
			max = id
		}
	}
	switch collection {
	case CollectionUsers:
		for _, v := range d.Users {
			bump(v.ID)
		}
	case CollectionCourses:
		for _, v := range d.Courses {
			bump(v.ID)
		}
	case CollectionAssignments:
		for _, v := range d.Assignments {
			bump(v.ID)
		}
	case CollectionGrades:
		for _, v := range d.Grades {
			bump(v.ID)
		}
	case CollectionNews:
		for _, v := range d.News {
			bump(v.ID)
		}
	case CollectionCommunications:
		for _, v := range d.Communications {
			bump(v.ID)
		}
	}
	return max
}

func (d *Document) User(id int) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// UserWithRole returns the user only when it has the given role.
func (d *Document) UserWithRole(id int, role Role) *User {
	u := d.User(id)
	if u == nil || u.Type != role {
		return nil
	}
	return u
}

func (d *Document) UserByEmail(email string) *User {
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

func (d *Document) Course(id int) *Course {
	for i := range d.Courses {
		if d.Courses[i].ID == id {
			return &d.Courses[i]
		}
	}
	return nil
}

func (d *Document) Assignment(id int) *Assignment {
	for i := range d.Assignments {
		if d.Assignments[i].ID == id {
			return &d.Assignments[i]
		}
	}
	return nil
}

// GradeFor finds the grade of a student for an assignment.
func (d *Document) GradeFor(studentID, assignmentID int) *Grade {
	for i := range d.Grades {
		if d.Grades[i].StudentID == studentID && d.Grades[i].AssignmentID == assignmentID {
			return &d.Grades[i]
		}
	}
	return nil
}

func (d *Document) Message(id int) *Message {
	for i := range d.Communications {
		if d.Communications[i].ID == id {
			return &d.Communications[i]
		}
	}
	return nil
}
