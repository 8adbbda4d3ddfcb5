// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type testItem struct {
	ID         string             `json:"id" validate:"required"`
	Difficulty float64            `json:"difficulty" validate:"rating"`
	Weight     float64            `json:"weight" validate:"unit"`
	Kind       string             `json:"kind" validate:"omitempty,oneof=drill course"`
	Skills     map[string]float64 `json:"skills" validate:"omitempty,dive,keys,required,endkeys,unit"`
	Internal   int                `json:"-" validate:"gte=0"`
}

func validItem() testItem {
	return testItem{ID: "a", Difficulty: 3, Weight: 0.5, Kind: "drill", Skills: map[string]float64{"preflop": 0.8}}
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testItem)
	}{
		{name: "all fields valid", mutate: func(*testItem) {}},
		{name: "lower bounds", mutate: func(it *testItem) { it.Difficulty = 1; it.Weight = 0 }},
		{name: "upper bounds", mutate: func(it *testItem) { it.Difficulty = 5; it.Weight = 1 }},
		{name: "empty optional fields", mutate: func(it *testItem) { it.Kind = ""; it.Skills = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)
			if err := ValidateStruct(&item); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*testItem)
		wantField string
		wantTag   string
	}{
		{name: "missing id", mutate: func(it *testItem) { it.ID = "" }, wantField: "id", wantTag: "required"},
		{name: "difficulty above scale", mutate: func(it *testItem) { it.Difficulty = 6 }, wantField: "difficulty", wantTag: TagRating},
		{name: "difficulty below scale", mutate: func(it *testItem) { it.Difficulty = 0.5 }, wantField: "difficulty", wantTag: TagRating},
		{name: "weight above one", mutate: func(it *testItem) { it.Weight = 1.5 }, wantField: "weight", wantTag: TagUnit},
		{name: "unknown kind", mutate: func(it *testItem) { it.Kind = "video" }, wantField: "kind", wantTag: "oneof"},
		{name: "skill importance out of range", mutate: func(it *testItem) { it.Skills["preflop"] = 2 }, wantField: "skills[preflop]", wantTag: TagUnit},
		{name: "json dash falls back to field name", mutate: func(it *testItem) { it.Internal = -1 }, wantField: "Internal", wantTag: "gte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)

			err := ValidateStruct(&item)
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), err)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
			if errs[0].Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", errs[0].Tag, tt.wantTag)
			}
		})
	}
}

func TestValidateSlice(t *testing.T) {
	good := validItem()
	bad := validItem()
	bad.Difficulty = 9
	worse := validItem()
	worse.ID = ""
	worse.Weight = -1

	if err := ValidateSlice("items", []testItem{good, good}); err != nil {
		t.Fatalf("ValidateSlice() on valid batch = %v", err)
	}

	err := ValidateSlice("items", []testItem{good, bad, worse})
	if err == nil {
		t.Fatal("ValidateSlice() expected error, got nil")
	}

	fields := err.Fields()
	for _, want := range []string{"items[1].difficulty", "items[2].id", "items[2].weight"} {
		if _, ok := fields[want]; !ok {
			t.Errorf("Fields() missing %q, got %v", want, fields)
		}
	}
	if _, ok := fields["items[0].difficulty"]; ok {
		t.Error("valid element reported as failing")
	}
}

func TestErrorMessages(t *testing.T) {
	item := validItem()
	item.Difficulty = 7
	item.Kind = "podcast"

	err := ValidateStruct(&item)
	if err == nil {
		t.Fatal("expected error")
	}

	msg := err.Error()
	for _, want := range []string{"difficulty must be between 1 and 5", "kind must be one of: drill course"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want it to contain %q", msg, want)
		}
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	var ve RequestValidationError
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q, want %q", ve.Error(), "validation failed")
	}
	if len(ve.Fields()) != 0 {
		t.Errorf("Fields() = %v, want empty", ve.Fields())
	}
}
