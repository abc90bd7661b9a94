package library

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveLoadPreservesDestinationStates(t *testing.T) {
	bound, _ := NewItem(imagePart("Rome/IMG_1.HEIC", "cid-1"))
	_, _ = bound.Add(videoPart("Rome/IMG_1.MOV", "cid-1"))
	_ = bound.Bind("PHOTO-1")

	absent, _ := NewItem(imagePart("Rome/IMG_2.JPG", ""))
	absent.MarkAbsent()

	pending, _ := NewItem(videoPart("Rome/CLIP.MP4", ""))
	pending.SetOutcome(MatchOutcome{Status: MatchAmbiguous, Tier: 3, Candidates: []string{"X", "Y"}})

	lib := &Library{}
	_ = lib.Add(&Album{
		Title:   "Rome",
		Dirs:    []string{"/t/1/Google Photos/Rome"},
		Items:   []*ContentItem{bound, absent, pending},
		Binding: &AlbumBinding{ID: "ALB", OriginalItemCount: 4},
	})

	path := filepath.Join(t.TempDir(), "output.json")
	if err := Save(path, lib); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	album := loaded.Album("Rome")
	if album == nil || len(album.Items) != 3 {
		t.Fatalf("unexpected album %+v", album)
	}
	if album.Binding == nil || album.Binding.ID != "ALB" || album.Binding.OriginalItemCount != 4 {
		t.Fatalf("unexpected binding %+v", album.Binding)
	}

	if id, ok := album.Items[0].Destination().ID(); !ok || id != "PHOTO-1" {
		t.Fatalf("expected bound item, got %v", album.Items[0].Destination())
	}
	if album.Items[0].Kind() != Paired || album.Items[0].ContentID() != "cid-1" {
		t.Fatalf("unexpected paired item %s", album.Items[0])
	}
	if album.Items[1].Destination().State() != Absent {
		t.Fatalf("expected absent item, got %v", album.Items[1].Destination())
	}
	if album.Items[2].Destination().State() != Unresolved {
		t.Fatalf("expected unresolved item, got %v", album.Items[2].Destination())
	}
	if out := album.Items[2].Outcome(); out.Status != MatchAmbiguous || len(out.Candidates) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestItemJSONShape(t *testing.T) {
	absent, _ := NewItem(imagePart("IMG.JPG", ""))
	absent.MarkAbsent()
	data, err := json.Marshal(absent)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"destinationId":null`) {
		t.Fatalf("expected explicit null destination id, got %s", data)
	}

	pending, _ := NewItem(imagePart("IMG2.JPG", ""))
	data, _ = json.Marshal(pending)
	if strings.Contains(string(data), "destinationId") {
		t.Fatalf("expected unresolved destination id omitted, got %s", data)
	}
}

func TestUnmarshalRejectsEmptyItem(t *testing.T) {
	var item ContentItem
	if err := json.Unmarshal([]byte(`{"kind":"image_only"}`), &item); err == nil {
		t.Fatal("expected error for item without parts")
	}
}
