package budget

import (
	"fmt"
	"strings"
	"time"
)

// FieldError names a single violated input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every violated field of a request body. Validation
// runs at the API boundary before any domain entity is constructed.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// MissingFields reports whether every violation is an absent required field.
// The register endpoint maps that case to a distinct status.
func (e *ValidationError) MissingFields() bool {
	if len(e.Fields) == 0 {
		return false
	}
	for _, f := range e.Fields {
		if f.Reason != "required" {
			return false
		}
	}
	return true
}

const (
	maxUsernameLen = 64
	maxNameLen     = 120
	maxCategoryLen = 64
	maxBodyLen     = 10000
	maxAmount      = int64(1_000_000_000_000) // minor units
)

// ValidateRegistration checks a registration body.
func ValidateRegistration(username, email, password string) error {
	var errs ValidationError
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		errs.add("username", "required")
	} else if len(username) > maxUsernameLen {
		errs.add("username", "too long")
	}
	if email == "" {
		errs.add("email", "required")
	} else if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		errs.add("email", "invalid format")
	}
	if password == "" {
		errs.add("password", "required")
	} else if len(password) < 6 {
		errs.add("password", "must be at least 6 characters")
	}
	return errs.orNil()
}

// ValidateLogin checks a login body.
func ValidateLogin(username, password string) error {
	var errs ValidationError
	if strings.TrimSpace(username) == "" {
		errs.add("username", "required")
	}
	if password == "" {
		errs.add("password", "required")
	}
	return errs.orNil()
}

// ValidateGoal checks a goal creation body.
func ValidateGoal(name string, targetAmount, savedAmount int64, deadline *time.Time) error {
	var errs ValidationError
	if strings.TrimSpace(name) == "" {
		errs.add("name", "required")
	} else if len(name) > maxNameLen {
		errs.add("name", "too long")
	}
	if targetAmount <= 0 {
		errs.add("target_amount", "must be positive")
	} else if targetAmount > maxAmount {
		errs.add("target_amount", "too large")
	}
	if savedAmount < 0 {
		errs.add("saved_amount", "must not be negative")
	}
	if deadline != nil && deadline.Before(time.Now().Add(-24*time.Hour)) {
		errs.add("deadline", "in the past")
	}
	return errs.orNil()
}

// ValidateNote checks a note creation body.
func ValidateNote(title, body string) error {
	var errs ValidationError
	if strings.TrimSpace(title) == "" {
		errs.add("title", "required")
	} else if len(title) > maxNameLen {
		errs.add("title", "too long")
	}
	if len(body) > maxBodyLen {
		errs.add("body", "too long")
	}
	return errs.orNil()
}

// ValidateTransaction checks a transaction creation body.
func ValidateTransaction(kind string, amount int64, category string) error {
	var errs ValidationError
	if kind != KindIncome && kind != KindExpense {
		errs.add("kind", "must be income or expense")
	}
	if amount <= 0 {
		errs.add("amount", "must be positive")
	} else if amount > maxAmount {
		errs.add("amount", "too large")
	}
	if strings.TrimSpace(category) == "" {
		errs.add("category", "required")
	} else if len(category) > maxCategoryLen {
		errs.add("category", "too long")
	}
	return errs.orNil()
}
