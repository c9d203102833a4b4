package core

import "fmt"

// AdminStats is the read-only aggregate for the admin dashboard, derived by
// enumerating both stores in full. No pagination.
type AdminStats struct {
	TotalUsers    int `json:"total_users"`
	TotalSessions int `json:"total_sessions"`
}

type AdminService struct {
	users   UserStore
	history HistoryStore
}

func NewAdminService(users UserStore, history HistoryStore) *AdminService {
	return &AdminService{users: users, history: history}
}

func (s *AdminService) Stats() (AdminStats, error) {
	users, err := s.users.ListUsers()
	if err != nil {
		return AdminStats{}, fmt.Errorf("failed to count users: %w", err)
	}
	sessions, err := s.history.ListAll()
	if err != nil {
		return AdminStats{}, fmt.Errorf("failed to count sessions: %w", err)
	}
	return AdminStats{TotalUsers: len(users), TotalSessions: len(sessions)}, nil
}
