package analysis

import (
	"reflect"
	"testing"

	"github.com/tradeforge/insight-mining-service/internal/domain"
)

func exposureRecord(userID string, converted bool, magnitude float64, exposures ...string) domain.UserExposureRecord {
	set := make(map[string]struct{}, len(exposures))
	for _, value := range exposures {
		set[value] = struct{}{}
	}
	return domain.UserExposureRecord{
		UserID:           userID,
		Exposures:        set,
		Converted:        converted,
		OutcomeMagnitude: magnitude,
	}
}

func TestMineExposurePatternsEvaluatesEveryCombination(t *testing.T) {
	t.Parallel()

	all := []string{"p1", "p2", "p3", "p4", "p5"}
	records := []domain.UserExposureRecord{
		exposureRecord("u1", true, 2, all...),
		exposureRecord("u2", true, 1, all...),
		exposureRecord("u3", false, 0, all...),
		exposureRecord("u4", false, 0, "p1"),
	}

	results := MineExposurePatterns(records, all, 0)
	if len(results) != 10 {
		t.Fatalf("expected C(5,3)=10 combinations, got %d", len(results))
	}
	for _, result := range results {
		if result.UsersWithExposure == 0 {
			t.Fatalf("combination %v has zero exposed users", result.Combination)
		}
		if result.TotalConversions != 3 {
			t.Fatalf("expected magnitude sum 3, got %f", result.TotalConversions)
		}
	}
}

func TestMineExposurePatternsSkipsSilentCombinations(t *testing.T) {
	t.Parallel()

	records := []domain.UserExposureRecord{
		exposureRecord("u1", true, 1, "a", "b", "c"),
		exposureRecord("u2", false, 0, "a", "b", "d"),
	}

	results := MineExposurePatterns(records, []string{"a", "b", "c", "d"}, 0)
	if len(results) != 1 {
		t.Fatalf("expected only the converting combination, got %d", len(results))
	}
	if results[0].Combination != [3]string{"a", "b", "c"} {
		t.Fatalf("unexpected combination %v", results[0].Combination)
	}
	if results[0].Rank != 1 {
		t.Fatalf("expected rank 1, got %d", results[0].Rank)
	}
}

func TestMineExposurePatternsRanksByAscendingAIC(t *testing.T) {
	t.Parallel()

	records := []domain.UserExposureRecord{}
	// Strong pattern: everyone exposed to x/y/z converts.
	for i := 0; i < 20; i++ {
		records = append(records, exposureRecord("strong", true, 1, "x", "y", "z"))
	}
	// Weak pattern: mixed outcomes under a/b/c.
	for i := 0; i < 10; i++ {
		records = append(records, exposureRecord("weak", i%2 == 0, 1, "a", "b", "c"))
	}
	for i := 0; i < 30; i++ {
		records = append(records, exposureRecord("background", false, 0, "a"))
	}

	results := MineExposurePatterns(records, []string{"x", "y", "z", "a", "b", "c"}, 0)
	if len(results) == 0 {
		t.Fatal("expected surviving combinations")
	}
	for i := 1; i < len(results); i++ {
		if results[i].AIC < results[i-1].AIC {
			t.Fatalf("results not sorted by ascending AIC at %d", i)
		}
		if results[i].Rank != results[i-1].Rank+1 {
			t.Fatalf("ranks not dense at %d", i)
		}
	}
	if results[0].Combination != [3]string{"x", "y", "z"} {
		t.Fatalf("expected the clean pattern to rank first, got %v", results[0].Combination)
	}
	if results[0].Lift <= 1 {
		t.Fatalf("expected lift above baseline for the clean pattern, got %f", results[0].Lift)
	}
}

func TestMineExposurePatternsDeterministic(t *testing.T) {
	t.Parallel()

	records := []domain.UserExposureRecord{
		exposureRecord("u1", true, 3, "a", "b", "c", "d"),
		exposureRecord("u2", false, 0, "a", "b", "c"),
		exposureRecord("u3", true, 1, "b", "c", "d"),
	}
	candidates := []string{"a", "b", "c", "d"}

	first := MineExposurePatterns(records, candidates, 0)
	second := MineExposurePatterns(records, candidates, 0)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical input must produce identical ranked output")
	}
}

func TestMineExposurePatternsHonorsCandidateCap(t *testing.T) {
	t.Parallel()

	records := []domain.UserExposureRecord{
		exposureRecord("u1", true, 1, "a", "b", "c", "d", "e"),
	}
	results := MineExposurePatterns(records, []string{"a", "b", "c", "d", "e"}, 4)
	// C(4,3)=4 once the pool is truncated to the first four candidates.
	if len(results) != 4 {
		t.Fatalf("expected 4 combinations under cap, got %d", len(results))
	}
	for _, result := range results {
		for _, value := range result.Combination {
			if value == "e" {
				t.Fatal("capped candidate leaked into combinations")
			}
		}
	}
}
