package models

const (
	TeacherUnknown    = "Unknown"
	TeacherUnassigned = "Unassigned"
)

type Course struct {
	ID        int    `json:"id"`
	Name      string `json:"name" validate:"required"`
	Teacher   string `json:"teacher,omitempty"`
	TeacherID *int   `json:"teacherId"`
	Grade     string `json:"grade"`
	Students  []int  `json:"students"`
}

func (c *Course) HasStudent(id int) bool {
	return containsID(c.Students, id)
}

func (c *Course) TaughtBy(id int) bool {
	return c.TeacherID != nil && *c.TeacherID == id
}
