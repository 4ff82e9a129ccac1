package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCanonicalHeader(t *testing.T) {
	input := "Game,Platform,Year,Genre,Game Id,Time to Beat,Score,Status\n" +
		"Growl,Mega Drive,1991,Beat 'em up,123,2.5,70,Beaten\n" +
		"Hogs of War,PS1,,,,,,\n"

	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ExternalID != "123" || records[0].DurationHours != "2.5" || records[0].Status != "Beaten" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Year != "" || records[1].Name != "Hogs of War" {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
}

func TestReadLegacyHeadersAndOrder(t *testing.T) {
	input := "\ufeffPlatform,Game Title,Main Story,Game ID\n" +
		"SNES,Daze Before Christmas,3.5,4521\n"

	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Name != "Daze Before Christmas" || rec.Platform != "SNES" || rec.DurationHours != "3.5" || rec.ExternalID != "4521" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Genre != "" {
		t.Fatalf("absent column should read empty, got %q", rec.Genre)
	}
}

func TestReadRequiresGameColumn(t *testing.T) {
	_, err := Read(strings.NewReader("Platform,Year\nPS1,1998\n"))
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
	_, err = Read(strings.NewReader(""))
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader for empty input, got %v", err)
	}
}

func TestReadSkipsBlankNames(t *testing.T) {
	records, err := Read(strings.NewReader("Game,Platform\n,PS1\nGrowl,Mega Drive\n"))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Growl" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestWriteCanonicalLayout(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Record{{
		Name: "Beat, the Game", Platform: "PS1", Year: "1999", Genre: "Action",
		ExternalID: "1", DurationHours: "7.25", Score: "80", Status: "",
	}})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	want := "Game,Platform,Year,Genre,Game Id,Time to Beat,Score,Status\n" +
		"\"Beat, the Game\",PS1,1999,Action,1,7.25,80,\n"
	if buf.String() != want {
		t.Fatalf("Write output mismatch:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestFileSaveDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "games.csv")
	if err := os.WriteFile(input, []byte("Game\nGrowl\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := File{InputPath: input}
	records, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := f.Save(context.Background(), records); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	out := filepath.Join(dir, "games_enriched.csv")
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected default output %s: %v", out, err)
	}
	original, _ := os.ReadFile(input)
	if string(original) != "Game\nGrowl\n" {
		t.Fatalf("input modified: %q", original)
	}
}

func TestFileSaveOverwriteWithBackup(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "games.csv")
	if err := os.WriteFile(input, []byte("Game\nGrowl\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := File{InputPath: input, OutputPath: input, Backup: true}
	if err := f.Save(context.Background(), []Record{{Name: "Growl", Platform: "Mega Drive"}}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	backup, err := os.ReadFile(input + ".bak")
	if err != nil {
		t.Fatalf("expected backup: %v", err)
	}
	if string(backup) != "Game\nGrowl\n" {
		t.Fatalf("backup content = %q", backup)
	}
	updated, _ := os.ReadFile(input)
	if !strings.HasPrefix(string(updated), "Game,Platform,Year") {
		t.Fatalf("input not rewritten: %q", updated)
	}
}

func TestFileLoadMissing(t *testing.T) {
	f := File{InputPath: filepath.Join(t.TempDir(), "missing.csv")}
	if _, err := f.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	if got := DefaultOutputPath("/tmp/games.csv"); got != "/tmp/games_enriched.csv" {
		t.Fatalf("DefaultOutputPath = %q", got)
	}
	if got := DefaultOutputPath("games"); got != "games_enriched.csv" {
		t.Fatalf("DefaultOutputPath = %q", got)
	}
}
