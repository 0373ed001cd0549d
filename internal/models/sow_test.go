package models

import (
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
)

func TestPricingRoleUnitCount(t *testing.T) {
	cases := []struct {
		name  string
		units interface{}
		want  float64
	}{
		{"float", 42.5, 42.5},
		{"int", 7, 7},
		{"jsonNumber", json.Number("12"), 12},
		{"numericString", "80", 80},
		{"garbageString", "twenty", 0},
		{"missing", nil, 0},
		{"bool", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := (PricingRole{Units: tc.units}).UnitCount(); got != tc.want {
				t.Errorf("UnitCount(%v) = %v, want %v", tc.units, got, tc.want)
			}
		})
	}
}

func TestDecodedPricingRoles(t *testing.T) {
	sow := &SOW{PricingRoles: datatypes.JSON(`[{"roleId":"dev","units":60},{"roleId":"qa","units":"40"}]`)}
	roles := sow.DecodedPricingRoles()
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
	if got := sow.TotalUnits(); got != 100 {
		t.Errorf("TotalUnits = %v, want 100", got)
	}

	// Malformed column degrades to empty, never an error.
	broken := &SOW{PricingRoles: datatypes.JSON(`{not json`)}
	if roles := broken.DecodedPricingRoles(); roles != nil {
		t.Errorf("malformed column should decode to nil, got %+v", roles)
	}
	if empty := (&SOW{}); empty.TotalUnits() != 0 {
		t.Error("empty pricing table must sum to zero")
	}
}

func TestLineageRoot(t *testing.T) {
	root := &SOW{ID: "a"}
	if root.LineageRoot() != "a" {
		t.Error("root revision must be its own lineage root")
	}

	parent := "a"
	child := &SOW{ID: "b", ParentID: &parent}
	if child.LineageRoot() != "a" {
		t.Error("child revision must resolve to its parent lineage")
	}
}
