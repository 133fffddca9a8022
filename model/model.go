package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsActive     bool      `json:"-"`
	DateJoined   time.Time `json:"-"`
	PasswordHash []byte    `json:"-"`
}

// Profile is the user as seen by its owner.
type Profile struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.DateJoined,
	}
}

type Form struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"-"`
	CreatedBy   *User     `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsActive    bool      `json:"is_active"`
	Fields      []Field   `json:"fields"`
}

type Field struct {
	ID          int64     `json:"id"`
	FormID      int64     `json:"-"`
	Label       string    `json:"label"`
	Type        FieldType `json:"field_type"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder"`
	Options     []string  `json:"options"`
	Order       int       `json:"order"`
}

type Submission struct {
	ID          int64      `json:"id"`
	FormID      int64      `json:"form"`
	SubmittedAt time.Time  `json:"submitted_at"`
	IPAddress   *string    `json:"ip_address"`
	Responses   []Response `json:"responses"`
}

type Response struct {
	ID      int64  `json:"id"`
	FieldID int64  `json:"-"`
	Field   *Field `json:"field"`
	Value   string `json:"value"`
}

// Answer is one inbound {field_id, value} pair of a public submission.
type Answer struct {
	FieldID int64       `json:"field_id"`
	Value   AnswerValue `json:"value"`
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
