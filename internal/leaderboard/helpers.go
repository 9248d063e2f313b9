package leaderboard

import ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	result := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			Score:       e.Score,
			Wins:        e.Wins,
			Games:       e.Games,
			Rounds:      e.Rounds,
		}
	}
	return result
}

func isValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime:
		return true
	default:
		return false
	}
}
