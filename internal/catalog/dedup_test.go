package catalog

import "testing"

func TestDeduplicateFirstWins(t *testing.T) {
	records := []Record{
		{Name: "Growl", Platform: "Mega Drive", Status: "first"},
		{Name: "Thrill Kill", Platform: "PS1"},
		{Name: " growl ", Platform: "MEGA DRIVE", Year: "1991", Status: "second"},
		{Name: "Growl", Platform: "Arcade"},
	}

	kept, removed := Deduplicate(records)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(kept) != 3 {
		t.Fatalf("kept %d records, want 3", len(kept))
	}
	if kept[0].Status != "first" {
		t.Fatalf("expected first occurrence retained, got %+v", kept[0])
	}
	for _, rec := range kept {
		if rec.Status == "second" || rec.Year == "1991" {
			t.Fatalf("later duplicate leaked into output: %+v", rec)
		}
	}
	if kept[1].Name != "Thrill Kill" || kept[2].Platform != "Arcade" {
		t.Fatalf("order not preserved: %+v", kept)
	}
}

func TestDeduplicateUniqueKeys(t *testing.T) {
	records := []Record{
		{Name: "A", Platform: "x"},
		{Name: "a", Platform: "X"},
		{Name: "A ", Platform: " x"},
		{Name: "B", Platform: "x"},
		{Name: "b", Platform: "y"},
	}
	kept, removed := Deduplicate(records)
	if len(kept)+removed != len(records) {
		t.Fatalf("kept %d + removed %d != input %d", len(kept), removed, len(records))
	}
	seen := map[Key]bool{}
	for _, rec := range kept {
		key := KeyOf(rec)
		if seen[key] {
			t.Fatalf("duplicate key %+v in output", key)
		}
		seen[key] = true
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	kept, removed := Deduplicate(nil)
	if len(kept) != 0 || removed != 0 {
		t.Fatalf("Deduplicate(nil) = %v, %d", kept, removed)
	}
}
