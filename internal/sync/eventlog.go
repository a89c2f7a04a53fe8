package syncx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/db"
)

const (
	EventQuizSaved         = "QuizSaved"
	EventAttemptStarted    = "AttemptStarted"
	EventAttemptSubmitted  = "AttemptSubmitted"
	EventCertificateIssued = "CertificateIssued"
	EventTemplateActivated = "TemplateActivated"
	EventCourseArchived    = "CourseArchived"
	EventCourseUnarchived  = "CourseUnarchived"
)

type Event struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// Append writes one event through q, which may be a transaction so the event
// commits together with the change it describes.
func Append(ctx context.Context, q db.Querier, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO event_log (typ, entity_key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

type EventRepo struct{ db db.Querier }

func NewEventRepo(q db.Querier) *EventRepo { return &EventRepo{db: q} }

// Since lists events after seq in commit order.
func (r *EventRepo) Since(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, typ, entity_key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq ASC LIMIT $2`, seq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
