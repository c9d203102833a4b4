package store

import (
	"encoding/json"
	"fmt"
)

// Chat history is stored one document per session: the whole message list is
// serialized and replaced on every save. Saves are upserts keyed by
// (username, session id), so the last writer for a session wins; nothing here
// attempts conflict detection.

func (s *SQLiteStore) List(username string) ([]ChatSession, error) {
	rows, err := s.db.Query(
		"SELECT id, title, timestamp, messages_json FROM chat_sessions WHERE username = ? ORDER BY timestamp DESC",
		username)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *SQLiteStore) Save(username string, session ChatSession) error {
	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO chat_sessions (username, id, title, timestamp, messages_json)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (username, id) DO UPDATE SET
             title = excluded.title,
             timestamp = excluded.timestamp,
             messages_json = excluded.messages_json`,
		username, session.ID, session.Title, session.Timestamp, string(messagesJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteOne(username, sessionID string) error {
	_, err := s.db.Exec("DELETE FROM chat_sessions WHERE username = ? AND id = ?", username, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAll(username string) error {
	_, err := s.db.Exec("DELETE FROM chat_sessions WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// ListAll enumerates every session across all usernames. Admin reporting only.
func (s *SQLiteStore) ListAll() ([]ChatSession, error) {
	rows, err := s.db.Query("SELECT id, title, timestamp, messages_json FROM chat_sessions ORDER BY timestamp DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query all sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

type sessionRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanSessions(rows sessionRows) ([]ChatSession, error) {
	var sessions []ChatSession
	for rows.Next() {
		var sess ChatSession
		var messagesJSON string
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.Timestamp, &messagesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if err := json.Unmarshal([]byte(messagesJSON), &sess.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages for session %s: %w", sess.ID, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
