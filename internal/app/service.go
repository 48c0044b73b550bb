package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/eduportal/internal/access"
	"github.com/shrimpsizemoose/eduportal/internal/metrics"
	"github.com/shrimpsizemoose/eduportal/internal/models"
	"github.com/shrimpsizemoose/eduportal/internal/scoring"
	"github.com/shrimpsizemoose/eduportal/internal/store"
)

const defaultAdminPassword = "admin123"

type Service struct {
	Config *Config
	Store  store.DocumentStore
	Auth   *Auth
	Grader *scoring.Grader

	// mu serializes read-modify-write cycles of this process.
	mu  sync.Mutex
	now func() time.Time
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return New(config, store, auth), nil
}

func New(config *Config, store store.DocumentStore, auth *Auth) *Service {
	return &Service{
		Config: config,
		Store:  store,
		Auth:   auth,
		Grader: scoring.NewGrader(config.Scoring.GPASteps, config.Scoring.LowGradePercent),
		now:    time.Now,
	}
}

// SetClock replaces the time source used for dates and statuses.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Now() time.Time {
	return s.now()
}

// Bootstrap seeds an empty store with the administrator account and a
// welcome news item. An existing document is left untouched.
func (s *Service) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.Store.Load(ctx)
	if err == nil {
		logger.Debug.Printf("Document already present, skipping bootstrap")
		return nil
	}
	if !errors.Is(err, store.ErrNoDocument) {
		return fmt.Errorf("failed to load document: %w", err)
	}

	seed := s.Config.Seed
	password := seed.AdminPassword
	if password == "" {
		logger.Info.Printf("seed.admin_password is not set, using the default administrator password")
		password = defaultAdminPassword
	}

	doc := models.NewDocument()
	if _, err := doc.AddUser(models.NewUser{
		Name:     seed.AdminName,
		Email:    seed.AdminEmail,
		Password: password,
		Type:     models.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("failed to seed administrator: %w", err)
	}
	if _, err := doc.AddNews(models.NewNews{
		Title:   fmt.Sprintf("Welcome to %s", seed.SchoolName),
		Content: "The school portal is ready. Administrators can now add users and courses.",
		Author:  seed.AdminName,
	}, s.now()); err != nil {
		return fmt.Errorf("failed to seed news: %w", err)
	}

	if err := s.Store.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save seeded document: %w", err)
	}
	logger.Info.Printf("Seeded empty store with administrator %s", seed.AdminEmail)
	return nil
}

func (s *Service) Snapshot(ctx context.Context) (*models.Document, error) {
	doc, err := s.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}

// Update loads the document, applies fn and saves the result. Nothing is
// saved when fn fails.
func (s *Service) Update(ctx context.Context, op string, fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Store.Load(ctx)
	if err != nil {
		metrics.DocumentWrites.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("failed to load document: %w", err)
	}

	if err := fn(doc); err != nil {
		metrics.DocumentWrites.WithLabelValues(op, "rejected").Inc()
		return err
	}

	if err := s.Store.Save(ctx, doc); err != nil {
		metrics.DocumentWrites.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("failed to save document after %s: %w", op, err)
	}
	metrics.DocumentWrites.WithLabelValues(op, "ok").Inc()
	logger.Debug.Printf("Saved document after %s", op)
	return nil
}

type LoginRequest struct {
	Login    string      `json:"login"`
	Password string      `json:"password"`
	Type     models.Role `json:"type"`
}

type LoginResult struct {
	Token string      `json:"token,omitempty"`
	User  models.User `json:"user"`
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	user, err := doc.Authenticate(strings.TrimSpace(req.Login), req.Password, req.Type)
	if err != nil {
		metrics.Logins.WithLabelValues(string(req.Type), "rejected").Inc()
		return nil, err
	}

	token, err := s.Auth.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	metrics.Logins.WithLabelValues(string(user.Type), "ok").Inc()

	return &LoginResult{Token: token, User: user.Public()}, nil
}

func (s *Service) Logout(r *http.Request) error {
	return s.Auth.Revoke(r.Context(), r)
}

// CurrentUser resolves the caller of the request against a fresh snapshot.
func (s *Service) CurrentUser(r *http.Request) (*models.User, *models.Document, error) {
	id, err := s.Auth.UserID(r)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.Snapshot(r.Context())
	if err != nil {
		return nil, nil, err
	}
	user := doc.User(id)
	if user == nil {
		return nil, nil, fmt.Errorf("%w: user %d no longer exists", ErrUnauthenticated, id)
	}
	return user, doc, nil
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func requireRole(actor *models.User, roles ...models.Role) error {
	for _, role := range roles {
		if actor.Type == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not do this", models.ErrForbidden, actor.Type)
}

func (s *Service) AddUser(ctx context.Context, actor *models.User, in models.NewUser) (models.User, error) {
	var created models.User
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return created, err
	}
	err := s.Update(ctx, "add_user", func(doc *models.Document) error {
		u, err := doc.AddUser(in)
		if err != nil {
			return err
		}
		created = u.Public()
		return nil
	})
	return created, err
}

func (s *Service) UpdateUser(ctx context.Context, actor *models.User, id int, in models.UserUpdate) (models.User, error) {
	var updated models.User
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return updated, err
	}
	err := s.Update(ctx, "update_user", func(doc *models.Document) error {
		u, err := doc.UpdateUser(id, in)
		if err != nil {
			return err
		}
		updated = u.Public()
		return nil
	})
	return updated, err
}

func (s *Service) DeleteUser(ctx context.Context, actor *models.User, id int) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if actor.ID == id {
		return fmt.Errorf("%w: administrators cannot delete themselves", models.ErrForbidden)
	}
	return s.Update(ctx, "delete_user", func(doc *models.Document) error {
		return doc.DeleteUser(id)
	})
}

func (s *Service) AddCourse(ctx context.Context, actor *models.User, in models.NewCourse) (models.Course, error) {
	var created models.Course
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return created, err
	}
	err := s.Update(ctx, "add_course", func(doc *models.Document) error {
		c, err := doc.AddCourse(in)
		if err != nil {
			return err
		}
		created = *c
		return nil
	})
	return created, err
}

func (s *Service) DeleteCourse(ctx context.Context, actor *models.User, id int) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	return s.Update(ctx, "delete_course", func(doc *models.Document) error {
		return doc.DeleteCourse(id)
	})
}

func (s *Service) AddNews(ctx context.Context, actor *models.User, in models.NewNews) (models.News, error) {
	var created models.News
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return created, err
	}
	if in.Author == "" {
		in.Author = actor.Name
	}
	err := s.Update(ctx, "add_news", func(doc *models.Document) error {
		n, err := doc.AddNews(in, s.now())
		if err != nil {
			return err
		}
		created = *n
		return nil
	})
	return created, err
}

func (s *Service) DeleteNews(ctx context.Context, actor *models.User, id int) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	return s.Update(ctx, "delete_news", func(doc *models.Document) error {
		return doc.DeleteNews(id)
	})
}

// ownCourse checks that a teacher owns the course. Administrators own every
// course.
func ownCourse(doc *models.Document, actor *models.User, courseID int) error {
	course := doc.Course(courseID)
	if course == nil {
		return fmt.Errorf("course %d: %w", courseID, models.ErrNotFound)
	}
	if actor.Type == models.RoleAdmin || course.TaughtBy(actor.ID) {
		return nil
	}
	return fmt.Errorf("%w: course %d is not taught by user %d", models.ErrForbidden, courseID, actor.ID)
}

func (s *Service) CreateAssignment(ctx context.Context, actor *models.User, in models.NewAssignment) (models.Assignment, error) {
	var created models.Assignment
	if err := requireRole(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return created, err
	}
	err := s.Update(ctx, "create_assignment", func(doc *models.Document) error {
		if err := ownCourse(doc, actor, in.CourseID); err != nil {
			return err
		}
		a, err := doc.CreateAssignment(in)
		if err != nil {
			return err
		}
		created = *a
		return nil
	})
	return created, err
}

func (s *Service) DeleteAssignment(ctx context.Context, actor *models.User, id int) error {
	if err := requireRole(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return err
	}
	return s.Update(ctx, "delete_assignment", func(doc *models.Document) error {
		a := doc.Assignment(id)
		if a == nil {
			return fmt.Errorf("assignment %d: %w", id, models.ErrNotFound)
		}
		if err := ownCourse(doc, actor, a.CourseID); err != nil {
			return err
		}
		return doc.DeleteAssignment(id)
	})
}

func (s *Service) SubmitGrade(ctx context.Context, actor *models.User, in models.GradeSubmission) (models.Grade, error) {
	var saved models.Grade
	var courseName string
	if err := requireRole(actor, models.RoleTeacher, models.RoleAdmin); err != nil {
		return saved, err
	}
	err := s.Update(ctx, "submit_grade", func(doc *models.Document) error {
		a := doc.Assignment(in.AssignmentID)
		if a == nil {
			return fmt.Errorf("assignment %d: %w", in.AssignmentID, models.ErrNotFound)
		}
		if err := ownCourse(doc, actor, a.CourseID); err != nil {
			return err
		}
		g, err := doc.SubmitGrade(in, s.now())
		if err != nil {
			return err
		}
		saved = *g
		courseName = doc.Course(g.CourseID).Name
		return nil
	})
	if err != nil {
		return saved, err
	}

	metrics.GradesSubmitted.WithLabelValues(courseName).Inc()
	metrics.GradePercent.WithLabelValues(courseName).Observe(saved.Percent())
	return saved, nil
}

// SendMessage delivers a message between a parent and a teacher of one of
// the parent's children, in either direction.
func (s *Service) SendMessage(ctx context.Context, actor *models.User, in models.NewMessage) (models.Message, error) {
	var sent models.Message
	if err := requireRole(actor, models.RoleParent, models.RoleTeacher); err != nil {
		return sent, err
	}
	err := s.Update(ctx, "send_message", func(doc *models.Document) error {
		if err := canMessage(doc, actor, in); err != nil {
			return err
		}
		m, err := doc.SendMessage(actor, in, s.now())
		if err != nil {
			return err
		}
		sent = *m
		return nil
	})
	return sent, err
}

func canMessage(doc *models.Document, from *models.User, in models.NewMessage) error {
	to := doc.User(in.ToID)
	if to == nil {
		return fmt.Errorf("user %d: %w", in.ToID, models.ErrNotFound)
	}

	var parent, teacher *models.User
	switch {
	case from.Type == models.RoleParent && to.Type == models.RoleTeacher:
		parent, teacher = from, to
	case from.Type == models.RoleTeacher && to.Type == models.RoleParent:
		parent, teacher = to, from
	default:
		return fmt.Errorf("%w: messages go between parents and teachers", models.ErrForbidden)
	}

	if !parent.HasChild(in.ChildID) {
		return fmt.Errorf("%w: student %d is not a child of user %d", models.ErrForbidden, in.ChildID, parent.ID)
	}
	for _, c := range access.CoursesForUser(doc, teacher.ID, models.RoleTeacher) {
		if c.HasStudent(in.ChildID) {
			return nil
		}
	}
	return fmt.Errorf("%w: user %d does not teach student %d", models.ErrForbidden, teacher.ID, in.ChildID)
}

func (s *Service) MarkMessageRead(ctx context.Context, actor *models.User, id int) error {
	return s.Update(ctx, "mark_message_read", func(doc *models.Document) error {
		return doc.MarkMessageRead(id, actor.ID)
	})
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
