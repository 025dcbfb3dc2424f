package optimize

import (
	"errors"
	"slices"
	"testing"
)

func TestQualitiesDescendToFloorInclusive(t *testing.T) {
	tests := []struct {
		name   string
		policy SizePolicy
		want   []int
	}{
		{"default", DefaultPolicy(), []int{80, 70, 60, 50, 40}},
		{"floor between steps", SizePolicy{StartQuality: 80, FloorQuality: 45, Step: 10}, []int{80, 70, 60, 50}},
		{"single attempt", SizePolicy{StartQuality: 60, FloorQuality: 60, Step: 5}, []int{60}},
		{"step of one", SizePolicy{StartQuality: 3, FloorQuality: 1, Step: 1}, []int{3, 2, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.policy.Qualities()
			if !slices.Equal(got, tc.want) {
				t.Fatalf("Qualities() = %v, want %v", got, tc.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i] >= got[i-1] {
					t.Fatalf("qualities not strictly decreasing: %v", got)
				}
			}
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	bad := DefaultPolicy()
	bad.Step = 0
	bad.FloorQuality = 90
	err := bad.Validate()
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
	if _, err := New(bad); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("New should reject invalid policy, got %v", err)
	}
}

func TestMaxBytesUsesBinaryKilobytes(t *testing.T) {
	if got := DefaultPolicy().MaxBytes(); got != 102400 {
		t.Fatalf("MaxBytes() = %d, want 102400", got)
	}
}
