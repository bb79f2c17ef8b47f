package store

import (
	"sync"
	"time"
)

// LogRecord is one asked question. The log measures demand, so only the
// question and when it arrived are kept.
type LogRecord struct {
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

// QuestionLog is an append-only, in-memory record of every resolved
// question. It is flushed to disk through Store.SaveQuestionLog and
// grows without bound for the life of the process.
//
// QuestionLog is safe for concurrent use.
type QuestionLog struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewQuestionLog creates a QuestionLog seeded with previously persisted
// records, typically from Store.LoadQuestionLog.
func NewQuestionLog(seed []LogRecord) *QuestionLog {
	q := &QuestionLog{}
	q.records = append(q.records, seed...)
	return q
}

// Append records a question stamped with the current time.
func (q *QuestionLog) Append(question string) {
	rec := LogRecord{
		Question:  question,
		Timestamp: time.Now().Format(TimestampFormat),
	}
	q.mu.Lock()
	q.records = append(q.records, rec)
	q.mu.Unlock()
}

// Snapshot returns a copy of all records, oldest first.
func (q *QuestionLog) Snapshot() []LogRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]LogRecord, len(q.records))
	copy(out, q.records)
	return out
}

// Len returns the number of recorded questions.
func (q *QuestionLog) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}
