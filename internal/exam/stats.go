package exam

import (
	"math"
	"sort"

	"github.com/classhub/backend/internal/model"
)

// HistogramBuckets is the number of fixed-width percentage buckets:
// 0-9, 10-19, ..., 80-89, and a final 90-100 bucket closed on both ends.
const HistogramBuckets = 10

// Performer pairs a student with their submission percentage for ranking.
type Performer struct {
	StudentID int64 `json:"student_id"`
	Percent   int   `json:"percent"`
}

// Summary aggregates the scored submissions of one exam. Average, Highest,
// Lowest and StdDev are kept unrounded so they compose further; rounding
// happens only in the Display accessors.
type Summary struct {
	Count     int
	Average   float64
	Highest   float64
	Lowest    float64
	StdDev    float64
	Histogram [HistogramBuckets]int
	Top       []Performer
	Bottom    []Performer
}

// DisplayAverage is the mean percentage rounded for presentation.
func (s Summary) DisplayAverage() int { return roundPercent(s.Average) }

// DisplayHighest is the highest percentage rounded for presentation.
func (s Summary) DisplayHighest() int { return roundPercent(s.Highest) }

// DisplayLowest is the lowest percentage rounded for presentation.
func (s Summary) DisplayLowest() int { return roundPercent(s.Lowest) }

// Aggregate computes summary statistics over already-scored submissions.
// Each submission contributes its percentage, 0 when its TotalPoints is 0.
// An empty input yields a zero Summary; callers check Count before rendering.
// rankSize bounds the top and bottom performer lists.
func Aggregate(submissions []model.Submission, rankSize int) Summary {
	var s Summary
	s.Count = len(submissions)
	if s.Count == 0 {
		return s
	}

	percents := make([]float64, 0, len(submissions))
	performers := make([]Performer, 0, len(submissions))
	for _, sub := range submissions {
		p := 0.0
		if sub.TotalPoints > 0 {
			p = 100 * float64(sub.Score) / float64(sub.TotalPoints)
		}
		percents = append(percents, p)
		performers = append(performers, Performer{StudentID: sub.StudentID, Percent: roundPercent(p)})
		s.Histogram[bucketFor(roundPercent(p))]++
	}

	s.Highest = percents[0]
	s.Lowest = percents[0]
	sum := 0.0
	for _, p := range percents {
		sum += p
		s.Highest = math.Max(s.Highest, p)
		s.Lowest = math.Min(s.Lowest, p)
	}
	s.Average = sum / float64(len(percents))

	variance := 0.0
	for _, p := range percents {
		d := p - s.Average
		variance += d * d
	}
	s.StdDev = math.Sqrt(variance / float64(len(percents)))

	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Percent > performers[j].Percent
	})
	if rankSize <= 0 || rankSize > len(performers) {
		rankSize = len(performers)
	}
	s.Top = append(s.Top, performers[:rankSize]...)
	for i := len(performers) - 1; i >= len(performers)-rankSize; i-- {
		s.Bottom = append(s.Bottom, performers[i])
	}
	return s
}

// bucketFor maps a rounded percentage to its histogram bucket. Buckets are
// half-open [low, high) except the last, which includes 100.
func bucketFor(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent >= 90 {
		return HistogramBuckets - 1
	}
	return percent / 10
}

func roundPercent(p float64) int {
	return int(math.Round(p))
}
