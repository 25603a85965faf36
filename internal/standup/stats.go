package standup

import "github.com/foxseedlab/standupbot/internal/repository"

const maxStatsMonths = 12

type StatsSummary struct {
	Days             int
	TotalVoice       int
	TotalAsync       int
	AvgParticipation float64
}

func Summarize(records []repository.AttendanceRecord) StatsSummary {
	s := StatsSummary{Days: len(records)}
	if len(records) == 0 {
		return s
	}
	total := 0
	for _, r := range records {
		s.TotalVoice += r.VoiceCount
		s.TotalAsync += r.AsyncCount
		total += r.TotalParticipation
	}
	s.AvgParticipation = float64(total) / float64(len(records))
	return s
}

// lastN keeps the trailing n records.
func lastN(records []repository.AttendanceRecord, n int) []repository.AttendanceRecord {
	if n <= 0 {
		return []repository.AttendanceRecord{}
	}
	if len(records) > n {
		return records[len(records)-n:]
	}
	return records
}
