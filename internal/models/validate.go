package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

var validate = validator.New()

// ValidateTask checks a task before it is written. Every problem is reported,
// not just the first one.
func ValidateTask(t Task) error {
	v := &ValidationError{}
	if strings.TrimSpace(t.Title) == "" {
		v.Add("title", "Please provide a title for the task")
	}
	if strings.TrimSpace(t.Description) == "" {
		v.Add("description", "Please provide a description for the task")
	}
	if _, ok := ValidTaskStatuses[t.Status]; !ok {
		v.Add("status", "status must be one of todo, in-progress, completed")
	}
	if _, ok := ValidTaskPriorities[t.Priority]; !ok {
		v.Add("priority", "priority must be one of low, medium, high")
	}
	if strings.TrimSpace(t.Assignee.ID) == "" {
		v.Add("assignee", "Please assign the task to a user")
	}
	if strings.TrimSpace(t.CreatedBy.ID) == "" {
		v.Add("createdBy", "task creator is required")
	}
	if t.DueDate.IsZero() {
		v.Add("dueDate", "Please provide a due date")
	}
	return v.Err()
}

// CheckDueDate flags a due date that was supplied but is not a calendar date.
// A blank value is left to ValidateTask, which reports it as missing.
func CheckDueDate(v *ValidationError, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	if _, err := ParseDate(raw); err != nil {
		v.Add("dueDate", "Please provide a valid due date (YYYY-MM-DD)")
	}
}

// ValidateComment checks a comment body and author.
func ValidateComment(c Comment) error {
	v := &ValidationError{}
	if strings.TrimSpace(c.Text) == "" {
		v.Add("text", "comment text is required")
	}
	if c.User.ID == "" {
		v.Add("user", "comment author is required")
	}
	return v.Err()
}

// ValidateUser checks the stored fields of an account.
func ValidateUser(u User) error {
	v := &ValidationError{}
	checkProfile(v, u)
	if u.PasswordHash == "" {
		v.Add("password", "password is required")
	}
	return v.Err()
}

// ValidateRegistration checks a new account before its password is hashed.
func ValidateRegistration(u User, password string) error {
	v := &ValidationError{}
	checkProfile(v, u)
	checkPassword(v, password)
	return v.Err()
}

func checkProfile(v *ValidationError, u User) {
	if strings.TrimSpace(u.Name) == "" {
		v.Add("name", "Please provide your name")
	}
	if err := validate.Var(u.Email, "required,email"); err != nil {
		v.Add("email", "Please provide a valid email")
	}
	if _, ok := ValidRoles[u.Role]; !ok {
		v.Add("role", "role must be one of user, admin")
	}
}

func checkPassword(v *ValidationError, password string) {
	switch {
	case password == "":
		v.Add("password", "Please provide a password")
	case len(password) > MaxPasswordBytes:
		v.Add("password", "password must be at most 72 bytes")
	}
}

// ValidateFilter rejects enum filters that can never match.
func ValidateFilter(f TaskFilter) error {
	v := &ValidationError{}
	if f.Status != "" {
		if _, ok := ValidTaskStatuses[f.Status]; !ok {
			v.Add("status", "status must be one of todo, in-progress, completed")
		}
	}
	if f.Priority != "" {
		if _, ok := ValidTaskPriorities[f.Priority]; !ok {
			v.Add("priority", "priority must be one of low, medium, high")
		}
	}
	return v.Err()
}

// NormalizeEmail lower-cases and trims an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
