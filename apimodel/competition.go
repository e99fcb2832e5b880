package apimodel

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		*d = Date{}
		return nil
	}
	// Some endpoints send full timestamps.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FlexBool accepts true/false as JSON booleans or as strings.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = FlexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = FlexBool(strings.EqualFold(s, "true"))
		return nil
	}
	*b = false
	return nil
}

// Book belongs to exactly one competition.
type Book struct {
	ID          int          `json:"id"`
	Competition int          `json:"competition"`
	Title       string       `json:"title"`
	Author      string       `json:"author,omitempty"`
	Category    BookCategory `json:"category,omitempty"`
	File        string       `json:"file,omitempty"`
}

// Attendance is a registration as listed on a competition.
type Attendance struct {
	GroupNumber string `json:"group_number"`
	StudentCart string `json:"student_cart"`
	FullName    string `json:"full_name"`
}

type Competition struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CreatedBy     int            `json:"created_by,omitempty"`
	FullName      string         `json:"full_name,omitempty"`
	StartDate     Date           `json:"start_date"`
	EndDate       Date           `json:"end_date"`
	IsRegistered  FlexBool       `json:"is_registered"`
	Books         []Book         `json:"books"`
	Registrations []Attendance   `json:"registrations,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
}

// Active reports whether day falls within the competition dates.
func (c Competition) Active(day time.Time) bool {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return false
	}
	d := day.UTC().Truncate(24 * time.Hour)
	return !d.Before(c.StartDate.Time) && !d.After(c.EndDate.Time)
}

// Book returns the competition's book with id.
func (c Competition) Book(id int) (Book, bool) {
	for _, b := range c.Books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}

// CompetitionRequest creates a competition through the admin endpoint.
type CompetitionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   Date   `json:"start_date"`
	EndDate     Date   `json:"end_date"`
}

// RegistrationRequest enrols the current user in a competition.
type RegistrationRequest struct {
	Competition int    `json:"competition"`
	StudentCart string `json:"student_cart"`
	GroupNumber string `json:"group_number,omitempty"`
}

type Registration struct {
	ID          int    `json:"id"`
	Student     int    `json:"student"`
	Competition int    `json:"competition"`
	StudentCart string `json:"student_cart"`
	GroupNumber string `json:"group_number"`
	FullName    string `json:"full_name,omitempty"`
}
