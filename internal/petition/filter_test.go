package petition

import (
	"reflect"
	"testing"
)

func samplePetitions() []Petition {
	return []Petition{
		{Title: "Climate Action", Body: "Cut emissions by 2030", SignatureCount: 5000},
		{Title: "Road Repairs", Body: "Fix potholes on climate-damaged roads", SignatureCount: 12},
		{Title: "Library Hours", Body: "Open on Sundays", SignatureCount: 300},
		{Title: "Ärzte für alle", Body: "Mehr Ärzte auf dem Land", SignatureCount: 41},
	}
}

func TestFilterBlankQueryIsIdentity(t *testing.T) {
	records := samplePetitions()
	for _, q := range []string{"", "   ", "\t\n"} {
		got := Filter(records, q)
		if !reflect.DeepEqual(got, records) {
			t.Errorf("Filter(records, %q) changed the records: %+v", q, got)
		}
		if len(got) > 0 && &got[0] != &records[0] {
			t.Errorf("Filter(records, %q) should return the input slice itself", q)
		}
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	got := Filter([]Petition{{Title: "Climate Action", Body: "..."}}, "CLIMATE")
	if len(got) != 1 || got[0].Title != "Climate Action" {
		t.Errorf("expected Climate Action, got %+v", got)
	}
}

func TestFilterMatchesBody(t *testing.T) {
	got := Filter(samplePetitions(), "potholes")
	if len(got) != 1 || got[0].Title != "Road Repairs" {
		t.Errorf("expected body-only match, got %+v", got)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	got := Filter(samplePetitions(), "climate")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Title != "Climate Action" || got[1].Title != "Road Repairs" {
		t.Errorf("unexpected order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestFilterTrimsQuery(t *testing.T) {
	got := Filter(samplePetitions(), "  sundays  ")
	if len(got) != 1 || got[0].Title != "Library Hours" {
		t.Errorf("expected Library Hours, got %+v", got)
	}
}

func TestFilterUnicode(t *testing.T) {
	got := Filter(samplePetitions(), "ÄRZTE")
	if len(got) != 1 || got[0].SignatureCount != 41 {
		t.Errorf("expected unicode match, got %+v", got)
	}
}

func TestFilterIdempotent(t *testing.T) {
	records := samplePetitions()
	for _, q := range []string{"climate", "o", "zzz", ""} {
		once := Filter(records, q)
		twice := Filter(once, q)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Filter not idempotent for %q: %+v vs %+v", q, once, twice)
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	records := samplePetitions()
	before := append([]Petition(nil), records...)
	Filter(records, "library")
	if !reflect.DeepEqual(records, before) {
		t.Error("Filter mutated its input")
	}
}

func TestFilterEmptyRecords(t *testing.T) {
	if got := Filter(nil, "water"); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestDecodeThenFilter(t *testing.T) {
	records, err := Decode([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	water := Filter(records, "water")
	if len(water) != 1 || water[0] != records[0] {
		t.Errorf("Filter(water) = %+v, want only %+v", water, records[0])
	}
	if got := Filter(records, "xyz"); len(got) != 0 {
		t.Errorf("Filter(xyz) = %+v, want empty", got)
	}
}
