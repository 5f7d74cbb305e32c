package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"compmatrix-data/internal/domain"
	"compmatrix-data/internal/repository"
	"compmatrix-data/internal/store"
)

type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.December, 15, 10, 0, 0, 0, time.UTC)
}

func dateAt(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedRepos(t *testing.T) (*repository.MemoryPersonnelRepository, *repository.MemoryDefinitionsRepository) {
	t.Helper()
	defs := repository.NewMemoryDefinitionsRepository()
	defs.AddDefinition(&domain.CompetencyDefinition{
		CompetencyID: "ut2", TenantID: "t1", Name: "UT Level 2",
		CategoryName: "NDT", FieldType: domain.FieldTypeCertification, RequiresWitness: true,
	})
	defs.AddDefinition(&domain.CompetencyDefinition{
		CompetencyID: "fa", TenantID: "t1", Name: "First Aid",
		CategoryName: "Safety", FieldType: domain.FieldTypeExpiryDate,
	})
	defs.AddDefinition(&domain.CompetencyDefinition{
		CompetencyID: "email", TenantID: "t1", Name: "Email",
		FieldType: domain.FieldTypePersonalDetail,
	})

	personnel := repository.NewMemoryPersonnelRepository()
	personnel.AddPerson(&domain.Person{
		PersonID: "p1", TenantID: "t1", Username: "alice", Email: "alice@acme.test",
		OrganizationID: "org1", OrganizationName: "Acme NDT", Role: domain.RoleEditor,
		Competencies: []*domain.CompetencyRecord{
			{RecordID: "r1", TenantID: "t1", PersonID: "p1", CompetencyID: "ut2",
				Status: domain.RecordStatusActive, ExpiryDate: dateAt(2025, time.January, 1)},
			{RecordID: "r2", TenantID: "t1", PersonID: "p1", CompetencyID: "email",
				Status: domain.RecordStatusActive, Value: "alice@acme.test"},
		},
	})
	personnel.AddPerson(&domain.Person{
		PersonID: "p2", TenantID: "t1", Username: "bob", Email: "bob@acme.test",
		OrganizationID: "org1", OrganizationName: "Acme NDT", Role: domain.RoleViewer,
		Competencies: []*domain.CompetencyRecord{
			{RecordID: "r3", TenantID: "t1", PersonID: "p2", CompetencyID: "fa",
				ExpiryDate: dateAt(2024, time.December, 1)},
		},
	})
	return personnel, defs
}

func newDirectoryService(t *testing.T) (*DirectoryService, *fakeKV, *repository.MemoryPersonnelRepository) {
	t.Helper()
	personnel, defs := seedRepos(t)
	kv := newFakeKV()
	svc := NewDirectoryService(personnel, defs, kv, time.Minute, zap.NewNop())
	svc.now = fixedNow
	return svc, kv, personnel
}

func TestListDirectory_StatsAndFiltering(t *testing.T) {
	svc, _, _ := newDirectoryService(t)

	resp, err := svc.ListDirectory(context.Background(), ListDirectoryRequest{TenantID: "t1"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)

	// alice：email 记录被个人信息规则排除，ut2 剩 17 天 → expiring
	require.Equal(t, "alice", resp.Items[0].Username)
	require.Equal(t, 1, resp.Items[0].Stats.Total)
	require.Equal(t, 1, resp.Items[0].Stats.Expiring)

	// bob：first aid 已过期
	require.Equal(t, 1, resp.Items[1].Stats.Expired)

	// 能力过滤：持有当前有效 ut2 的只有 alice
	resp, err = svc.ListDirectory(context.Background(), ListDirectoryRequest{
		TenantID: "t1", CompetencyIDs: []string{"ut2"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, "alice", resp.Items[0].Username)
}

func TestListDirectory_Pagination(t *testing.T) {
	svc, _, _ := newDirectoryService(t)

	resp, err := svc.ListDirectory(context.Background(), ListDirectoryRequest{
		TenantID: "t1", Page: 2, PageSize: 1,
		SortColumn: "name",
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "bob", resp.Items[0].Username)
}

func TestListDirectory_PopulatesSnapshotCache(t *testing.T) {
	svc, kv, _ := newDirectoryService(t)

	_, err := svc.ListDirectory(context.Background(), ListDirectoryRequest{TenantID: "t1"})
	require.NoError(t, err)
	require.Contains(t, kv.data, "compmatrix:directory:t1")
}

func TestSaveRecord_PersistsAndMergesIntoSnapshot(t *testing.T) {
	svc, kv, personnel := newDirectoryService(t)
	ctx := context.Background()

	// 先填充快照
	_, err := svc.ListDirectory(ctx, ListDirectoryRequest{TenantID: "t1"})
	require.NoError(t, err)

	resp, err := svc.SaveRecord(ctx, SaveRecordRequest{
		TenantID:     "t1",
		PersonID:     "p2",
		CompetencyID: "ut2",
		IssuedDate:   "2024-12-01",
		ExpiryDate:   "2026-12-01",
		IssuingBody:  "PCN",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RecordID)
	require.Equal(t, "active", resp.Status)

	// repo 已持久化
	p, err := personnel.GetPerson(ctx, "t1", "p2")
	require.NoError(t, err)
	require.NotNil(t, p.RecordFor("ut2"))

	// 快照已 merge（无需重新取数即可见）
	var cached []*domain.Person
	require.NoError(t, json.Unmarshal([]byte(kv.data["compmatrix:directory:t1"]), &cached))
	for _, cp := range cached {
		if cp.PersonID == "p2" {
			require.NotNil(t, cp.RecordFor("ut2"))
			require.Equal(t, "PCN", cp.RecordFor("ut2").IssuingBody)
			return
		}
	}
	t.Fatalf("p2 not found in cached snapshot")
}

func TestSaveRecord_UnknownCompetencyRejected(t *testing.T) {
	svc, _, _ := newDirectoryService(t)

	_, err := svc.SaveRecord(context.Background(), SaveRecordRequest{
		TenantID: "t1", PersonID: "p1", CompetencyID: "ghost",
	})
	require.Error(t, err)
}

// failingPersonnelRepo 模拟持久化失败
type failingPersonnelRepo struct {
	repository.PersonnelRepository
}

func (r *failingPersonnelRepo) SaveRecord(context.Context, string, *domain.CompetencyRecord) (string, error) {
	return "", fmt.Errorf("backend unavailable")
}

func TestSaveRecord_FailureLeavesSnapshotUntouched(t *testing.T) {
	personnel, defs := seedRepos(t)
	kv := newFakeKV()
	svc := NewDirectoryService(&failingPersonnelRepo{personnel}, defs, kv, time.Minute, zap.NewNop())
	svc.now = fixedNow
	ctx := context.Background()

	_, err := svc.ListDirectory(ctx, ListDirectoryRequest{TenantID: "t1"})
	require.NoError(t, err)
	before := kv.data["compmatrix:directory:t1"]

	_, err = svc.SaveRecord(ctx, SaveRecordRequest{
		TenantID: "t1", PersonID: "p1", CompetencyID: "ut2", IssuingBody: "ASNT",
	})
	require.Error(t, err)

	// 保存失败：快照原样
	require.Equal(t, before, kv.data["compmatrix:directory:t1"])
}

func TestGetPersonDetail_ClassifiesRecords(t *testing.T) {
	svc, _, _ := newDirectoryService(t)

	detail, err := svc.GetPersonDetail(context.Background(), "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, "alice", detail.Username)

	var ut2 *RecordDTO
	for _, rec := range detail.Records {
		if rec.CompetencyID == "ut2" {
			ut2 = rec
		}
	}
	require.NotNil(t, ut2)
	require.Equal(t, "expiring", ut2.Status)
	require.Equal(t, "UT Level 2", ut2.CompetencyName)
	require.NotNil(t, ut2.DaysUntilExpiry)
	require.Equal(t, 17, *ut2.DaysUntilExpiry)
}

func TestPopulationStats(t *testing.T) {
	svc, _, _ := newDirectoryService(t)

	st, err := svc.PopulationStats(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 2, st.Total)
	require.Equal(t, 1, st.Expiring)
	require.Equal(t, 1, st.Expired)
}
