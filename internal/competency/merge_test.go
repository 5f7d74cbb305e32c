package competency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"compmatrix-data/internal/domain"
)

func mergeFixture() []*domain.Person {
	existing := testRecord("compA", domain.RecordStatusActive, date(2025, time.January, 1))
	existing.CreatedAt = date(2023, time.January, 1)
	existing.IssuingBody = "PCN"
	existing.Notes = "old notes"
	return []*domain.Person{
		testPerson("p1", "alice", "", "org1", "Acme", domain.RoleEditor, existing),
		testPerson("p2", "bob", "", "org1", "Acme", domain.RoleViewer,
			testRecord("compA", domain.RecordStatusActive, nil)),
	}
}

func TestMergeRecord_OverlaysExistingRecord(t *testing.T) {
	people := mergeFixture()

	got := MergeRecord(people, "p1", "compA", RecordPatch{
		ExpiryDate:  date(2026, time.January, 1),
		IssuingBody: "ASNT",
	})

	rec := got[0].RecordFor("compA")
	require.Equal(t, date(2026, time.January, 1), rec.ExpiryDate)
	require.Equal(t, "ASNT", rec.IssuingBody)
	// 签发日期缺省时保留原值
	require.Equal(t, date(2023, time.January, 1), rec.CreatedAt)
	// 其余可选字段按表单语义清空
	require.Equal(t, "", rec.Notes)
	// status 缺省保留
	require.Equal(t, domain.RecordStatusActive, rec.Status)
}

func TestMergeRecord_SynthesizesNewRecordAsActive(t *testing.T) {
	people := mergeFixture()

	got := MergeRecord(people, "p1", "compNew", RecordPatch{
		IssuedAt:   date(2024, time.December, 1),
		ExpiryDate: date(2026, time.December, 1),
	})

	rec := got[0].RecordFor("compNew")
	require.NotNil(t, rec)
	require.Equal(t, domain.RecordStatusActive, rec.Status)
	require.Equal(t, "p1", rec.PersonID)
	require.Equal(t, "t1", rec.TenantID)
	require.Equal(t, date(2024, time.December, 1), rec.CreatedAt)
	require.Len(t, got[0].Competencies, 2)
}

func TestMergeRecord_DoesNotMutateInput(t *testing.T) {
	people := mergeFixture()

	_ = MergeRecord(people, "p1", "compA", RecordPatch{IssuingBody: "ASNT"})

	// 原集合不受影响
	require.Equal(t, "PCN", people[0].RecordFor("compA").IssuingBody)
	require.Len(t, people[0].Competencies, 1)
}

func TestMergeRecord_OtherPersonsPassThroughUnchanged(t *testing.T) {
	people := mergeFixture()

	got := MergeRecord(people, "p1", "compA", RecordPatch{IssuingBody: "ASNT"})

	// 未涉及的 person 引用原样透传（允许结构共享）
	require.Same(t, people[1], got[1])
	// 目标 person 是新副本
	require.NotSame(t, people[0], got[0])
}

func TestMergeRecord_DuplicateRecordsOnlyFirstPatched(t *testing.T) {
	dup1 := testRecord("compA", domain.RecordStatusActive, nil)
	dup2 := testRecord("compA", domain.RecordStatusExpired, nil)
	people := []*domain.Person{
		testPerson("p1", "alice", "", "org1", "Acme", domain.RoleEditor, dup1, dup2),
	}

	got := MergeRecord(people, "p1", "compA", RecordPatch{IssuingBody: "ASNT"})
	require.Len(t, got[0].Competencies, 2)
	require.Equal(t, "ASNT", got[0].Competencies[0].IssuingBody)
	// 第二条重复记录原样保留
	require.Same(t, dup2, got[0].Competencies[1])
}

func TestMergeRecord_UnknownPersonLeavesCollectionEquivalent(t *testing.T) {
	people := mergeFixture()
	got := MergeRecord(people, "missing", "compA", RecordPatch{IssuingBody: "ASNT"})
	require.Len(t, got, 2)
	require.Same(t, people[0], got[0])
	require.Same(t, people[1], got[1])
}
