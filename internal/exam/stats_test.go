package exam

import (
	"math"
	"testing"

	"github.com/classhub/backend/internal/model"
)

func scored(studentID int64, score, total int) model.Submission {
	return model.Submission{StudentID: studentID, Score: score, TotalPoints: total}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, 3)
	if s.Count != 0 {
		t.Errorf("Count = %d, want 0", s.Count)
	}
	if s.Average != 0 || s.Highest != 0 || s.Lowest != 0 || s.StdDev != 0 {
		t.Error("empty aggregate should be all zeros")
	}
	if len(s.Top) != 0 || len(s.Bottom) != 0 {
		t.Error("empty aggregate should have no performers")
	}
}

func TestAggregateZeroTotalPoints(t *testing.T) {
	// Submissions against an exam with no questions must not divide by zero.
	s := Aggregate([]model.Submission{scored(1, 0, 0), scored(2, 3, 0)}, 0)
	if s.Count != 2 {
		t.Fatalf("Count = %d, want 2", s.Count)
	}
	if s.Average != 0 || s.Highest != 0 {
		t.Errorf("zero-point submissions must report 0%%, got avg %f high %f", s.Average, s.Highest)
	}
	if s.Histogram[0] != 2 {
		t.Errorf("both submissions belong in the first bucket, got %v", s.Histogram)
	}
}

func TestAggregateBasics(t *testing.T) {
	subs := []model.Submission{
		scored(1, 10, 10), // 100%
		scored(2, 5, 10),  // 50%
		scored(3, 0, 10),  // 0%
	}
	s := Aggregate(subs, 10)

	if s.Count != 3 {
		t.Fatalf("Count = %d, want 3", s.Count)
	}
	if s.DisplayAverage() != 50 {
		t.Errorf("DisplayAverage = %d, want 50", s.DisplayAverage())
	}
	if s.DisplayHighest() != 100 || s.DisplayLowest() != 0 {
		t.Errorf("Highest/Lowest = %d/%d, want 100/0", s.DisplayHighest(), s.DisplayLowest())
	}
	// Internal values stay unrounded for composition.
	wantStd := math.Sqrt((2500.0 + 0 + 2500.0) / 3)
	if math.Abs(s.StdDev-wantStd) > 1e-9 {
		t.Errorf("StdDev = %f, want %f", s.StdDev, wantStd)
	}
}

func TestAggregateKeepsUnroundedAverage(t *testing.T) {
	subs := []model.Submission{scored(1, 1, 3), scored(2, 2, 3)} // 33.33 and 66.67
	s := Aggregate(subs, 2)

	if math.Abs(s.Average-50.0) > 1e-9 {
		t.Errorf("Average = %f, want exactly 50", s.Average)
	}
	if math.Abs(s.Highest-200.0/3) > 1e-9 {
		t.Errorf("Highest = %f, want unrounded 66.67", s.Highest)
	}
	if s.DisplayHighest() != 67 {
		t.Errorf("DisplayHighest = %d, want 67", s.DisplayHighest())
	}
}

func TestHistogramBucketBoundaries(t *testing.T) {
	tests := []struct {
		percent int
		bucket  int
	}{
		{0, 0},
		{9, 0},
		{10, 1},  // [10, 20) is half-open
		{19, 1},
		{20, 2},
		{89, 8},
		{90, 9},  // final bucket is closed on both ends
		{99, 9},
		{100, 9},
	}
	for _, tt := range tests {
		if got := bucketFor(tt.percent); got != tt.bucket {
			t.Errorf("bucketFor(%d) = %d, want %d", tt.percent, got, tt.bucket)
		}
	}
}

func TestAggregateHistogram(t *testing.T) {
	subs := []model.Submission{
		scored(1, 100, 100), // bucket 9
		scored(2, 95, 100),  // bucket 9
		scored(3, 50, 100),  // bucket 5
		scored(4, 9, 100),   // bucket 0
		scored(5, 10, 100),  // bucket 1
	}
	s := Aggregate(subs, 5)

	want := [HistogramBuckets]int{1, 1, 0, 0, 0, 1, 0, 0, 0, 2}
	if s.Histogram != want {
		t.Errorf("Histogram = %v, want %v", s.Histogram, want)
	}
}

func TestAggregatePerformers(t *testing.T) {
	subs := []model.Submission{
		scored(1, 40, 100),
		scored(2, 90, 100),
		scored(3, 10, 100),
		scored(4, 70, 100),
	}
	s := Aggregate(subs, 2)

	if len(s.Top) != 2 || s.Top[0].StudentID != 2 || s.Top[1].StudentID != 4 {
		t.Errorf("Top = %v, want students 2 then 4", s.Top)
	}
	if len(s.Bottom) != 2 || s.Bottom[0].StudentID != 3 || s.Bottom[1].StudentID != 1 {
		t.Errorf("Bottom = %v, want students 3 then 1", s.Bottom)
	}
}

func TestAggregateRankSizeLargerThanInput(t *testing.T) {
	subs := []model.Submission{scored(1, 5, 10)}
	s := Aggregate(subs, 10)
	if len(s.Top) != 1 || len(s.Bottom) != 1 {
		t.Errorf("rank lists should cap at input size, got %d/%d", len(s.Top), len(s.Bottom))
	}
}
