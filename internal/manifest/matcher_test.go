package manifest

import (
	"strings"
	"testing"

	"takeoutsync/internal/library"
)

func mf(path, title string) *library.Manifest {
	return &library.Manifest{Path: path, Title: title}
}

func item(t *testing.T, parts ...library.Part) *library.ContentItem {
	t.Helper()
	it, err := library.NewItem(parts[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range parts[1:] {
		if _, err := it.Add(p); err != nil {
			t.Fatal(err)
		}
	}
	return it
}

func img(path string) library.Part { return library.Part{Kind: library.KindImage, Path: path} }
func vid(path string) library.Part { return library.Part{Kind: library.KindVideo, Path: path} }

// name51 builds a basename of exactly 51 UTF-16 code units ending in ext.
func name51(prefix, ext string) string {
	return prefix + strings.Repeat("x", 51-len(prefix)-len(ext)) + ext
}

func TestCandidatesExactAndDupe(t *testing.T) {
	exact := mf("/a/IMG_1.JPG.json", "IMG_1.JPG")
	dupe := mf("/a/IMG_1.JPG(1).json", "IMG_1.JPG")
	m := NewMatcher([]*library.Manifest{exact, dupe}, nil)

	got := m.Candidates("/a/IMG_1.JPG")
	if len(got) != 1 || got[0].Manifest != exact || got[0].Strategy != StrategyExact {
		t.Fatalf("unexpected exact candidates %+v", got)
	}
	got = m.Candidates("/a/IMG_1(1).JPG")
	if len(got) != 1 || got[0].Manifest != dupe || got[0].Strategy != StrategyDupe {
		t.Fatalf("unexpected dupe candidates %+v", got)
	}
}

func TestCandidatesTruncationOnlyAtExactLength(t *testing.T) {
	long := name51("VID_20190101_", ".MP4")
	if n := len(long); n != 51 {
		t.Fatalf("fixture length %d", n)
	}
	stem := strings.TrimSuffix(long, ".MP4")
	fullTitle := stem + "_extra_words_google_dropped.mp4"
	manifest := mf("/a/"+stem[:46]+".json", fullTitle)
	m := NewMatcher([]*library.Manifest{manifest}, nil)

	got := m.Candidates("/a/" + long)
	if len(got) != 1 || got[0].Strategy != StrategyTruncated {
		t.Fatalf("expected truncated-title candidate, got %+v", got)
	}

	tests := []string{
		long[:len(long)-5] + ".MP4", // 50 code units
		stem + "y.MP4",              // 52 code units
		stem + ".JPG",               // wrong extension
	}
	for _, name := range tests {
		if got := m.Candidates("/a/" + name); len(got) != 0 {
			t.Errorf("Candidates(%q) = %+v, want none", name, got)
		}
	}
}

func TestCandidatesCountsUTF16Units(t *testing.T) {
	// "é" is one code unit and two UTF-8 bytes.
	prefix := "été_"
	name := prefix + strings.Repeat("x", 51-4-len(".JPG")) + ".JPG"
	manifest := mf("/a/whatever.json", strings.TrimSuffix(name, ".JPG")+"_more.jpg")
	m := NewMatcher([]*library.Manifest{manifest}, nil)
	if got := m.Candidates("/a/" + name); len(got) != 1 {
		t.Fatalf("expected heuristic to fire for 51 UTF-16 units, got %+v", got)
	}
}

func TestCandidatesMeasuresOnDiskName(t *testing.T) {
	// "e\u0301" is two code units on disk and one after NFC.
	decomposed := "e\u0301te_"
	composed := "\u00e9te_"
	tests := []struct {
		name string
		file string
		want int
	}{
		{"decomposed 51 units", decomposed + strings.Repeat("x", 51-5-len(".JPG")) + ".JPG", 1},
		{"decomposed 52 units", decomposed + strings.Repeat("x", 52-5-len(".JPG")) + ".JPG", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stem := strings.TrimSuffix(tt.file, ".JPG")
			title := composed + strings.TrimPrefix(stem, decomposed) + "_more.jpg"
			m := NewMatcher([]*library.Manifest{mf("/a/whatever.json", title)}, nil)
			if got := m.Candidates("/a/" + tt.file); len(got) != tt.want {
				t.Fatalf("Candidates(%q) = %+v, want %d", tt.file, got, tt.want)
			}
		})
	}
}

func TestAttachConsumesOnceAndLogsPartner(t *testing.T) {
	heic := mf("/a/IMG_2.HEIC.json", "IMG_2.HEIC")
	live := item(t, img("/a/IMG_2.HEIC"), vid("/a/IMG_2.MOV"))
	lone := item(t, img("/a/IMG_3.JPG"))
	album := &library.Album{Title: "A", Items: []*library.ContentItem{live, lone}}

	res := NewMatcher([]*library.Manifest{heic}, nil).Attach(album)
	if res.Attached != 1 || res.Missing != 2 || len(res.Unused) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if live.Image().Manifest != heic || live.Video().Manifest != nil {
		t.Fatal("manifest attached to the wrong slot")
	}
}

func TestAttachTruncatedCollisionKeepsSecondCandidate(t *testing.T) {
	long := name51("PXL_", ".JPG")
	stem := strings.TrimSuffix(long, ".JPG")
	first := mf("/a/one.json", stem+"_a.jpg")
	second := mf("/a/two.json", stem+"_b.jpg")
	it := item(t, img("/a/"+long))
	album := &library.Album{Title: "A", Items: []*library.ContentItem{it}}

	res := NewMatcher([]*library.Manifest{first, second}, nil).Attach(album)
	if it.Image().Manifest != first {
		t.Fatalf("expected first candidate attached")
	}
	if res.Redundant != 1 || len(res.Unused) != 1 || res.Unused[0] != second {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAttachNeverConsumesTwice(t *testing.T) {
	shared := mf("/a/IMG_4.JPG.json", "IMG_4.JPG")
	a := item(t, img("/a/IMG_4.JPG"))
	b := item(t, img("/b/IMG_4.JPG"))
	album := &library.Album{Title: "A", Items: []*library.ContentItem{a, b}}

	res := NewMatcher([]*library.Manifest{shared}, nil).Attach(album)
	if res.Attached != 1 || res.Missing != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if a.Image().Manifest != shared || b.Image().Manifest != nil {
		t.Fatal("manifest consumed twice")
	}
}
