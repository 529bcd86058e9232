package model

import "time"

// Question statuses.
//
//	draft → published → submitted
//	published/submitted → resolved (acceptance) → published (un-acceptance)
//	closed is terminal and only reachable by an explicit owner update.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusSubmitted = "submitted"
	StatusResolved  = "resolved"
	StatusClosed    = "closed"
)

// Question is a request for help owned by a client.
//
// AcceptedAnswerID is a weak reference into the answers table. When set, it
// points at an answer of this question whose IsAccepted flag is true.
type Question struct {
	ID               string     `db:"id"`
	Title            string     `db:"title"`
	Description      string     `db:"description"`
	Category         string     `db:"category"`
	Subcategory      *string    `db:"subcategory"`
	Difficulty       *string    `db:"difficulty"`
	Tags             StringList `db:"tags"`
	Links            StringList `db:"links"`
	CodeExample      *string    `db:"code_example"`
	Deadline         *time.Time `db:"deadline"`
	Status           string     `db:"status"`
	ClientID         string     `db:"client_id"`
	AcceptedAnswerID *string    `db:"accepted_answer_id"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// IsSolved reports whether the question counts as solved for display purposes.
func (q *Question) IsSolved() bool {
	if q.Status == StatusResolved || q.Status == StatusClosed {
		return true
	}
	return q.AcceptedAnswerID != nil && *q.AcceptedAnswerID != ""
}

// Answer is a response to a Question.
//
// ExpertName and ExpertRating are a snapshot of the author taken when the
// answer was created. They are not updated when the author's profile changes.
type Answer struct {
	ID           string     `db:"id"`
	QuestionID   string     `db:"question_id"`
	AuthorID     string     `db:"author_id"`
	AnswerText   string     `db:"answer_text"`
	CodeExample  *string    `db:"code_example"`
	Links        StringList `db:"links"`
	ExpertName   *string    `db:"expert_name"`
	ExpertRating float64    `db:"expert_rating"`
	IsAccepted   bool       `db:"is_accepted"`
	CreatedAt    time.Time  `db:"created_at"`
}
