package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/eduportal/internal/app"
	"github.com/shrimpsizemoose/eduportal/internal/models"
)

const (
	newsLimit = 5

	publicHelp = `Available commands:
/news - Latest school news
/help - Show this message`

	staffHelp = `Available commands:
/news - Latest school news
/report - School wide statistics
/student <email> - GPA and course averages of a student
/overdue <email> - Overdue assignments of a student
/help - Show this message

Examples:
/student john.doe@school.edu
/overdue john.doe@school.edu`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routePublicCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start": b.handleStart,
		"help":  b.handleHelp,
		"news":  b.handleNews,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeStaffCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"report":  b.handleReport,
		"student": b.handleStudent,
		"overdue": b.handleOverdue,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routePublicCommands(cmd); ok {
		b.run(msg, handler)
		return
	}

	if b.isStaff(msg) {
		if handler, ok := b.routeStaffCommands(cmd); ok {
			b.run(msg, handler)
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) run(msg *tgbotapi.Message, handler commandHandler) {
	if err := handler(msg); err != nil {
		logger.Error.Printf("Command /%s error: %v", msg.Command(), err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
	}
}

func (b *Bot) isStaff(msg *tgbotapi.Message) bool {
	return msg.From != nil && b.admins[msg.From.ID]
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := publicHelp
	if b.isStaff(msg) {
		text = staffHelp
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Use commands to talk to the bot. Send /help for the list of commands.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := fmt.Sprintf("Hi! This is the %s reporting bot.\n\n", b.config.Seed.SchoolName)
	if b.isStaff(msg) {
		text += "You are school staff. Use /help for the list of commands."
	} else {
		text += "Use /news to read the latest announcements."
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleNews(msg *tgbotapi.Message) error {
	doc, err := b.reporter.Snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load news: %w", err)
	}
	return b.sendMessage(msg.Chat.ID, formatNews(doc.News, newsLimit))
}

func (b *Bot) handleReport(msg *tgbotapi.Message) error {
	doc, err := b.reporter.Snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	return b.sendMessage(msg.Chat.ID, formatReport(b.reporter.Report(doc)))
}

func (b *Bot) handleStudent(msg *tgbotapi.Message) error {
	email := strings.TrimSpace(msg.CommandArguments())
	if email == "" {
		return b.sendMessage(msg.Chat.ID, "Usage: /student <email>")
	}

	report, err := b.reporter.StudentReport(context.Background(), email)
	if errors.Is(err, models.ErrNotFound) {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("No student with email %s", email))
	}
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, formatStudentReport(report))
}

func (b *Bot) handleOverdue(msg *tgbotapi.Message) error {
	email := strings.TrimSpace(msg.CommandArguments())
	if email == "" {
		return b.sendMessage(msg.Chat.ID, "Usage: /overdue <email>")
	}

	overdue, err := b.reporter.OverdueAssignments(context.Background(), email)
	if errors.Is(err, models.ErrNotFound) {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("No student with email %s", email))
	}
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, formatOverdue(email, overdue))
}

func formatNews(news []models.News, limit int) string {
	if len(news) == 0 {
		return "No news yet"
	}
	if len(news) > limit {
		news = news[:limit]
	}

	var msg strings.Builder
	for _, n := range news {
		msg.WriteString(fmt.Sprintf("📰 %s (%s, %s)\n%s\n\n", n.Title, n.Author, n.Date, n.Content))
	}
	return strings.TrimSpace(msg.String())
}

func formatReport(r app.Report) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("School report, %s UTC\n\n", r.GeneratedAt))
	msg.WriteString(fmt.Sprintf("👥 Students: %d, Teachers: %d, Parents: %d, Admins: %d\n",
		r.Users[models.RoleStudent],
		r.Users[models.RoleTeacher],
		r.Users[models.RoleParent],
		r.Users[models.RoleAdmin],
	))
	msg.WriteString(fmt.Sprintf("📚 Courses: %d, Enrollments: %d, Avg. per course: %d\n",
		r.Enrollment.TotalCourses,
		r.Enrollment.TotalEnrollments,
		r.Enrollment.AveragePerCourse,
	))
	msg.WriteString(fmt.Sprintf("📝 Grades: %d, Average grade: %d%%, Assignments: %d",
		r.Grades.TotalGrades,
		r.Grades.AverageGrade,
		r.Grades.Assignments,
	))
	return msg.String()
}

func formatStudentReport(r *app.StudentReport) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("🎓 %s (grade %s)\nGPA: %.2f\n\n", r.Student.Name, r.Student.Grade, r.GPA))
	if len(r.Courses) == 0 {
		msg.WriteString("Not enrolled in any course")
		return msg.String()
	}
	for _, c := range r.Courses {
		avg := "N/A"
		if c.Average != nil {
			avg = fmt.Sprintf("%d%%", *c.Average)
		}
		msg.WriteString(fmt.Sprintf("📘 %s (%s): %s\n", c.Course.Name, c.Teacher, avg))
	}
	return strings.TrimSpace(msg.String())
}

func formatOverdue(email string, overdue []app.AssignmentView) string {
	if len(overdue) == 0 {
		return fmt.Sprintf("✅ Nothing overdue for %s", email)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("Overdue assignments of %s:\n\n", email))
	for _, v := range overdue {
		msg.WriteString(fmt.Sprintf("⏰ %s [%s] %s, due %s\n", v.Course, v.Assignment.Type, v.Assignment.Title, v.Assignment.DueDate))
	}
	return strings.TrimSpace(msg.String())
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
