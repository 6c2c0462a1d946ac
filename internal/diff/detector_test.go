package diff

import (
	"reflect"
	"testing"

	"github.com/d-melnychenko/jobwatch/internal/entity"
)

func snap(extractionID int64, found bool, company, position string) *entity.JobSnapshot {
	return &entity.JobSnapshot{
		ID:           extractionID,
		ExtractionID: extractionID,
		SubjectRef:   "dmytro",
		Found:        found,
		Company:      company,
		Position:     position,
	}
}

func TestBuildReport_NoSnapshots(t *testing.T) {
	r := BuildReport("dmytro", nil)
	if !r.InsufficientData {
		t.Error("InsufficientData = false with zero snapshots")
	}
	if r.Changed {
		t.Error("Changed = true with zero snapshots")
	}
	if r.SnapshotCount != 0 || r.FoundCount != 0 {
		t.Errorf("counts = %d/%d", r.SnapshotCount, r.FoundCount)
	}
}

func TestBuildReport_SingleFoundIsInsufficient(t *testing.T) {
	r := BuildReport("dmytro", []*entity.JobSnapshot{
		snap(1, true, "Marble", "Founder"),
	})
	if !r.InsufficientData {
		t.Error("one found snapshot must be insufficient data")
	}
	if r.Changed {
		t.Error("Changed = true with a single snapshot")
	}
}

func TestBuildReport_NotFoundSnapshotsDoNotCount(t *testing.T) {
	r := BuildReport("dmytro", []*entity.JobSnapshot{
		snap(1, false, "", ""),
		snap(2, true, "Marble", "Founder"),
		snap(3, false, "", ""),
	})
	if r.SnapshotCount != 3 || r.FoundCount != 1 {
		t.Errorf("counts = %d/%d, want 3/1", r.SnapshotCount, r.FoundCount)
	}
	if !r.InsufficientData {
		t.Error("a single found snapshot among misses must be insufficient")
	}
}

func TestBuildReport_CaseAndSpaceFoldToOneGroup(t *testing.T) {
	r := BuildReport("dmytro", []*entity.JobSnapshot{
		snap(1, true, "Marble", "Founder"),
		snap(2, true, "  marble ", "FOUNDER"),
	})
	if r.InsufficientData {
		t.Fatal("two found snapshots reported as insufficient")
	}
	if r.Changed {
		t.Error("Changed = true for values differing only in case and whitespace")
	}
	if len(r.DistinctCompanies) != 1 || r.DistinctCompanies[0].Value != "marble" {
		t.Errorf("companies = %+v", r.DistinctCompanies)
	}
	if got := r.DistinctCompanies[0].ExtractionIDs; !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("company extraction ids = %v", got)
	}
}

func TestBuildReport_CompanyChangeDetected(t *testing.T) {
	r := BuildReport("dmytro", []*entity.JobSnapshot{
		snap(1, true, "Ecoisme", "CTO"),
		snap(2, true, "Ecoisme", "CTO"),
		snap(3, true, "Marble", "CTO"),
	})
	if !r.Changed {
		t.Fatal("Changed = false across two distinct companies")
	}
	if len(r.DistinctCompanies) != 2 {
		t.Fatalf("companies = %+v", r.DistinctCompanies)
	}
	// first-seen order, ids grouped per value
	if r.DistinctCompanies[0].Value != "ecoisme" || r.DistinctCompanies[1].Value != "marble" {
		t.Errorf("group order = %q, %q", r.DistinctCompanies[0].Value, r.DistinctCompanies[1].Value)
	}
	if !reflect.DeepEqual(r.DistinctCompanies[0].ExtractionIDs, []int64{1, 2}) {
		t.Errorf("ecoisme ids = %v", r.DistinctCompanies[0].ExtractionIDs)
	}
	if !reflect.DeepEqual(r.DistinctCompanies[1].ExtractionIDs, []int64{3}) {
		t.Errorf("marble ids = %v", r.DistinctCompanies[1].ExtractionIDs)
	}
	if len(r.DistinctPositions) != 1 {
		t.Errorf("positions = %+v", r.DistinctPositions)
	}
}

func TestBuildReport_PositionChangeAloneFlags(t *testing.T) {
	r := BuildReport("dmytro", []*entity.JobSnapshot{
		snap(1, true, "Marble", "CTO"),
		snap(2, true, "Marble", "Founder"),
	})
	if !r.Changed {
		t.Error("position change alone must flag the report")
	}
	if len(r.DistinctCompanies) != 1 || len(r.DistinctPositions) != 2 {
		t.Errorf("groups = %d companies, %d positions", len(r.DistinctCompanies), len(r.DistinctPositions))
	}
}

func TestBuildReport_EmptyValuesAreNotGroups(t *testing.T) {
	r := BuildReport("dmytro", []*entity.JobSnapshot{
		snap(1, true, "Marble", ""),
		snap(2, true, "Marble", "  "),
		snap(3, true, "Marble", "Founder"),
	})
	if r.Changed {
		t.Error("missing position values must not count as a distinct group")
	}
	if len(r.DistinctPositions) != 1 || r.DistinctPositions[0].Value != "founder" {
		t.Errorf("positions = %+v", r.DistinctPositions)
	}
}

func TestBuildReport_Deterministic(t *testing.T) {
	snaps := []*entity.JobSnapshot{
		snap(1, true, "Ecoisme", "CTO"),
		snap(2, true, "Marble", "Founder"),
		snap(3, true, "Ecoisme", "CTO"),
	}
	first := BuildReport("dmytro", snaps)
	for i := 0; i < 10; i++ {
		if got := BuildReport("dmytro", snaps); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}
