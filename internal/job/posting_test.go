package job

import (
	"testing"
	"time"
)

func TestFeedDeduplicatesBySourceAndExternalID(t *testing.T) {
	feed := &Feed{}

	first := &Posting{Source: SourceProfesia, ExternalID: "123", Title: "Go Developer"}
	dup := &Posting{Source: SourceProfesia, ExternalID: "123", Title: "Go Developer (repost)"}
	other := &Posting{Source: SourceLinkedIn, ExternalID: "123", Title: "Go Developer"}

	if !feed.Add(first) {
		t.Fatal("first posting should be accepted")
	}
	if feed.Add(dup) {
		t.Error("posting with the same (source, external id) should be rejected")
	}
	if !feed.Add(other) {
		t.Error("same external id from a different source should be accepted")
	}
	if feed.Len() != 2 {
		t.Errorf("expected 2 postings, got %d", feed.Len())
	}
}

func TestFeedExcludeByField(t *testing.T) {
	feed := &Feed{}
	feed.Add(&Posting{ID: "a", Source: SourceProfesia, ExternalID: "a", Company: "Acme"})
	feed.Add(&Posting{ID: "b", Source: SourceProfesia, ExternalID: "b", Company: "Globex"})
	feed.Add(&Posting{ID: "c", Source: SourceProfesia, ExternalID: "c", Company: "Initech"})

	excluded := feed.Exclude(PostingCompanyField, []string{"GLOBEX"})
	if len(excluded) != 1 || excluded[0] != "b" {
		t.Fatalf("Exclude by company = %v, want [b]", excluded)
	}

	excluded = feed.Exclude(PostingIDField, []string{"c", "missing"})
	if len(excluded) != 1 || excluded[0] != "c" {
		t.Fatalf("Exclude by id = %v, want [c]", excluded)
	}
	if feed.Len() != 1 || feed.Items[0].ID != "a" {
		t.Errorf("expected only posting a left, got %v", feed.Items)
	}
}

func TestFeedFromExport(t *testing.T) {
	data := []byte(`{
		"scraped_with": "jobpilot-extension/0.3",
		"scraped_at": "2026-08-30T06:00:00Z",
		"items": [
			{
				"external_id": "123",
				"source": "profesia.sk",
				"title": "Go Developer",
				"company": "Acme",
				"published_at": "2026-08-29T10:00:00Z",
				"extension_only_field": "ignored"
			},
			{"external_id": "123", "source": "profesia.sk", "title": "Go Developer (repost)"}
		]
	}`)

	feed, err := FeedFromExport(data)
	if err != nil {
		t.Fatalf("FeedFromExport returned error: %v", err)
	}
	if feed.Len() != 1 {
		t.Fatalf("expected duplicate item dropped, got %d postings", feed.Len())
	}

	p := feed.Items[0]
	if p.ID != "profesia.sk/123" {
		t.Errorf("ID = %q, want key-derived id", p.ID)
	}
	if p.Company != "Acme" {
		t.Errorf("Company = %q", p.Company)
	}
	want := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	if !p.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, want)
	}
	if !p.ScrapedAt.Equal(time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("ScrapedAt should fall back to the export header, got %v", p.ScrapedAt)
	}
}

func TestSalaryHintMidpoint(t *testing.T) {
	cases := []struct {
		name string
		hint *SalaryHint
		want float64
	}{
		{"nil", nil, 0},
		{"range", &SalaryHint{From: 3000, To: 4000}, 3500},
		{"from only", &SalaryHint{From: 3000}, 3000},
		{"to only", &SalaryHint{To: 4000}, 4000},
	}

	for _, c := range cases {
		if got := c.hint.Midpoint(); got != c.want {
			t.Errorf("%s: Midpoint() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestSnapshotHashIsOrderIndependent(t *testing.T) {
	a := &Profile{Skills: []string{"Go", "Python", "SQL"}, TargetSalary: 4000, TargetLocations: []string{"Bratislava", "Remote"}}
	b := &Profile{Skills: []string{"sql", "go", "python"}, TargetSalary: 4000, TargetLocations: []string{"remote", "bratislava"}}

	if a.SnapshotHash() != b.SnapshotHash() {
		t.Error("hash should not depend on skill order or case")
	}

	c := &Profile{Skills: []string{"Go", "Python"}, TargetSalary: 4000, TargetLocations: []string{"Bratislava", "Remote"}}
	if a.SnapshotHash() == c.SnapshotHash() {
		t.Error("different skill sets must hash differently")
	}
}
