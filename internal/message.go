package internal

import (
	"strings"
	"time"
)

// Role identifies who produced a message entry
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// MessageEntry is one item of the conversation log. Optional fields are nil
// when absent; an entry is never modified after it is appended.
type MessageEntry struct {
	Role      Role      `json:"role" yaml:"role"`
	Text      *string   `json:"text,omitempty" yaml:"text,omitempty"`
	Table     []Row     `json:"table,omitempty" yaml:"table,omitempty"`
	Columns   []string  `json:"columns,omitempty" yaml:"columns,omitempty"`
	Charts    []string  `json:"charts,omitempty" yaml:"charts,omitempty"`
	Code      *string   `json:"code,omitempty" yaml:"code,omitempty"`
	Stderr    *string   `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Error     *string   `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// UserEntry builds the entry for a question the user asked
func UserEntry(question string) MessageEntry {
	return MessageEntry{Role: RoleUser, Text: StringPtr(question)}
}

// FailureEntry builds a bot entry describing a failed query
func FailureEntry(message string) MessageEntry {
	return MessageEntry{
		Role:  RoleBot,
		Text:  StringPtr(message),
		Error: StringPtr(message),
	}
}

// IsError reports whether the entry represents a failed query
func (m MessageEntry) IsError() bool {
	return m.Error != nil
}

// TextValue returns the text or "" when absent
func (m MessageEntry) TextValue() string {
	return deref(m.Text)
}

// CodeValue returns the generated code or "" when absent
func (m MessageEntry) CodeValue() string {
	return deref(m.Code)
}

// StderrValue returns the diagnostic output or "" when absent
func (m MessageEntry) StderrValue() string {
	return deref(m.Stderr)
}

// ErrorValue returns the failure description or "" when absent
func (m MessageEntry) ErrorValue() string {
	return deref(m.Error)
}

// HasStderr is true only for non-blank diagnostic output
func (m MessageEntry) HasStderr() bool {
	return strings.TrimSpace(deref(m.Stderr)) != ""
}

// TableColumns returns the column order for Table: the explicit Columns
// when given, otherwise the key order of the first row.
func (m MessageEntry) TableColumns() []string {
	if len(m.Columns) > 0 {
		return cloneStrings(m.Columns)
	}
	for _, r := range m.Table {
		if r.Len() > 0 {
			return r.Keys()
		}
	}
	return nil
}

// Clone returns a deep copy so the log never shares memory with callers
func (m MessageEntry) Clone() MessageEntry {
	return MessageEntry{
		Role:      m.Role,
		Text:      cloneStringPtr(m.Text),
		Table:     cloneRows(m.Table),
		Columns:   cloneStrings(m.Columns),
		Charts:    cloneStrings(m.Charts),
		Code:      cloneStringPtr(m.Code),
		Stderr:    cloneStringPtr(m.Stderr),
		Error:     cloneStringPtr(m.Error),
		Timestamp: m.Timestamp,
	}
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
