package scheduler

import (
	"testing"
	"time"
)

func at(clock string) time.Time {
	t, err := time.Parse(time.RFC3339, "2025-03-10T"+clock+":00Z")
	if err != nil {
		panic(err)
	}
	return t
}

func slot(start, end string) TimeSlot {
	return TimeSlot{Start: at(start), End: at(end)}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a, b     TimeSlot
		wantOK   bool
		expected TimeSlot
	}{
		{"partial", slot("09:30", "10:15"), slot("09:40", "10:25"), true, slot("09:40", "10:15")},
		{"contained", slot("08:00", "12:00"), slot("09:00", "10:00"), true, slot("09:00", "10:00")},
		{"identical", slot("09:00", "10:00"), slot("09:00", "10:00"), true, slot("09:00", "10:00")},
		{"touching", slot("09:00", "10:00"), slot("10:00", "11:00"), false, TimeSlot{}},
		{"disjoint", slot("09:00", "10:00"), slot("11:00", "12:00"), false, TimeSlot{}},
		{"zero length inside", slot("09:00", "10:00"), slot("09:30", "09:30"), false, TimeSlot{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Overlap(tt.a, tt.b)
			gotReverse, okReverse := Overlap(tt.b, tt.a)

			if ok != tt.wantOK {
				t.Fatalf("Overlap() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok != okReverse || !got.Start.Equal(gotReverse.Start) || !got.End.Equal(gotReverse.End) {
				t.Errorf("Overlap is not symmetric: %v/%v vs %v/%v", got, ok, gotReverse, okReverse)
			}
			if ok && (!got.Start.Equal(tt.expected.Start) || !got.End.Equal(tt.expected.End)) {
				t.Errorf("Overlap() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMergeOverlappingSlots(t *testing.T) {
	tests := []struct {
		name     string
		input    []TimeSlot
		expected []TimeSlot
	}{
		{
			name:     "empty",
			input:    nil,
			expected: []TimeSlot{},
		},
		{
			name:     "unsorted disjoint",
			input:    []TimeSlot{slot("13:00", "14:00"), slot("09:00", "10:00")},
			expected: []TimeSlot{slot("09:00", "10:00"), slot("13:00", "14:00")},
		},
		{
			name:     "touching slots merge",
			input:    []TimeSlot{slot("09:00", "10:00"), slot("10:00", "11:00")},
			expected: []TimeSlot{slot("09:00", "11:00")},
		},
		{
			name:     "nested slot absorbed",
			input:    []TimeSlot{slot("09:00", "12:00"), slot("10:00", "11:00"), slot("11:30", "12:30")},
			expected: []TimeSlot{slot("09:00", "12:30")},
		},
		{
			name: "mixed",
			input: []TimeSlot{
				slot("15:00", "15:30"),
				slot("09:30", "10:15"),
				slot("10:10", "10:50"),
				slot("14:00", "15:00"),
			},
			expected: []TimeSlot{slot("09:30", "10:50"), slot("14:00", "15:30")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeOverlappingSlots(tt.input)
			assertSlots(t, got, tt.expected)

			again := MergeOverlappingSlots(got)
			assertSlots(t, again, got)
		})
	}
}

func TestMergeOverlappingSlots_DoesNotMutateInput(t *testing.T) {
	input := []TimeSlot{slot("13:00", "14:00"), slot("09:00", "10:00")}
	MergeOverlappingSlots(input)

	if !input[0].Start.Equal(at("13:00")) {
		t.Errorf("input was reordered: %v", input)
	}
}

func assertSlots(t *testing.T, got, expected []TimeSlot) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("got %d slots %v, want %d %v", len(got), got, len(expected), expected)
	}
	for i := range got {
		if !got[i].Start.Equal(expected[i].Start) || !got[i].End.Equal(expected[i].End) {
			t.Errorf("slot %d = [%s, %s], want [%s, %s]", i,
				got[i].Start.Format("15:04"), got[i].End.Format("15:04"),
				expected[i].Start.Format("15:04"), expected[i].End.Format("15:04"))
		}
	}
}
