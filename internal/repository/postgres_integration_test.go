//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"compmatrix-data/internal/config"
	"compmatrix-data/internal/database"
	"compmatrix-data/internal/domain"

	"github.com/google/uuid"
)

// 获取测试数据库连接
func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:     getTestEnv("TEST_DB_HOST", "localhost"),
		Port:     getTestEnvInt("TEST_DB_PORT", 5432),
		User:     getTestEnv("TEST_DB_USER", "postgres"),
		Password: getTestEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getTestEnv("TEST_DB_NAME", "compmatrix"),
		SSLMode:  getTestEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil
	}
	return db
}

func getTestEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getTestEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

type testFixture struct {
	tenantID     string
	orgID        string
	personID     string
	competencyID string
}

// 造一个租户 + 组织 + 人员 + 定义，返回各 ID
func seedFixture(t *testing.T, db *sql.DB) testFixture {
	t.Helper()
	f := testFixture{tenantID: uuid.NewString()}

	err := db.QueryRow(
		`INSERT INTO organizations (tenant_id, organization_name) VALUES ($1, $2) RETURNING organization_id::text`,
		f.tenantID, "Test Inspection",
	).Scan(&f.orgID)
	if err != nil {
		t.Fatalf("seed organization failed: %v", err)
	}

	err = db.QueryRow(
		`INSERT INTO personnel (tenant_id, username, email, organization_id, role)
		 VALUES ($1, $2, $3, $4, $5) RETURNING person_id::text`,
		f.tenantID, "test-alice", "alice@test.local", f.orgID, domain.RoleEditor,
	).Scan(&f.personID)
	if err != nil {
		t.Fatalf("seed person failed: %v", err)
	}

	err = db.QueryRow(
		`INSERT INTO competency_definitions (tenant_id, name, category_name, field_type, requires_witness, display_order)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING competency_id::text`,
		f.tenantID, "UT Level 2", "NDT", domain.FieldTypeCertification, true, 1,
	).Scan(&f.competencyID)
	if err != nil {
		t.Fatalf("seed definition failed: %v", err)
	}

	return f
}

// 清理测试数据（records 级联删除）
func cleanupFixture(t *testing.T, db *sql.DB, f testFixture) {
	t.Helper()
	db.Exec(`DELETE FROM personnel WHERE tenant_id = $1`, f.tenantID)
	db.Exec(`DELETE FROM competency_definitions WHERE tenant_id = $1`, f.tenantID)
	db.Exec(`DELETE FROM organizations WHERE tenant_id = $1`, f.tenantID)
}

func TestPostgresPersonnelRepository_ListPersonnel(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	f := seedFixture(t, db)
	defer cleanupFixture(t, db, f)

	repo := NewPostgresPersonnelRepository(db)
	ctx := context.Background()

	expiry := time.Now().UTC().AddDate(1, 0, 0)
	if _, err := repo.SaveRecord(ctx, f.tenantID, &domain.CompetencyRecord{
		PersonID:     f.personID,
		CompetencyID: f.competencyID,
		ExpiryDate:   &expiry,
	}); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	people, err := repo.ListPersonnel(ctx, f.tenantID)
	if err != nil {
		t.Fatalf("ListPersonnel failed: %v", err)
	}
	if len(people) != 1 {
		t.Fatalf("Expected 1 person, got %d", len(people))
	}
	p := people[0]
	if p.Username != "test-alice" {
		t.Errorf("Expected username 'test-alice', got '%s'", p.Username)
	}
	if p.OrganizationName != "Test Inspection" {
		t.Errorf("Expected organization_name 'Test Inspection', got '%s'", p.OrganizationName)
	}
	if len(p.Competencies) != 1 {
		t.Fatalf("Expected 1 record attached, got %d", len(p.Competencies))
	}
	if p.Competencies[0].Status != domain.RecordStatusActive {
		t.Errorf("Expected new record to default to 'active', got '%s'", p.Competencies[0].Status)
	}
}

func TestPostgresPersonnelRepository_GetPerson(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	f := seedFixture(t, db)
	defer cleanupFixture(t, db, f)

	repo := NewPostgresPersonnelRepository(db)
	ctx := context.Background()

	p, err := repo.GetPerson(ctx, f.tenantID, f.personID)
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if p.PersonID != f.personID {
		t.Errorf("Expected person_id '%s', got '%s'", f.personID, p.PersonID)
	}

	if _, err := repo.GetPerson(ctx, f.tenantID, uuid.NewString()); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for unknown person, got %v", err)
	}
}

func TestPostgresPersonnelRepository_SaveRecordUpsert(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	f := seedFixture(t, db)
	defer cleanupFixture(t, db, f)

	repo := NewPostgresPersonnelRepository(db)
	ctx := context.Background()

	issued := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2027, time.January, 10, 0, 0, 0, 0, time.UTC)
	recordID, err := repo.SaveRecord(ctx, f.tenantID, &domain.CompetencyRecord{
		PersonID:        f.personID,
		CompetencyID:    f.competencyID,
		Status:          domain.RecordStatusPendingApproval,
		CreatedAt:       &issued,
		ExpiryDate:      &expiry,
		CertificationID: "PCN-123456",
	})
	if err != nil {
		t.Fatalf("SaveRecord insert failed: %v", err)
	}
	if recordID == "" {
		t.Fatal("Expected non-empty record_id")
	}

	// 同 (person, competency) 再保存：status/created_at 缺省保留原值
	newExpiry := time.Date(2028, time.June, 1, 0, 0, 0, 0, time.UTC)
	recordID2, err := repo.SaveRecord(ctx, f.tenantID, &domain.CompetencyRecord{
		PersonID:     f.personID,
		CompetencyID: f.competencyID,
		ExpiryDate:   &newExpiry,
		Notes:        "renewed",
	})
	if err != nil {
		t.Fatalf("SaveRecord update failed: %v", err)
	}
	if recordID2 != recordID {
		t.Errorf("Expected upsert to keep record_id '%s', got '%s'", recordID, recordID2)
	}

	p, err := repo.GetPerson(ctx, f.tenantID, f.personID)
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if len(p.Competencies) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(p.Competencies))
	}
	rec := p.Competencies[0]
	if rec.Status != domain.RecordStatusPendingApproval {
		t.Errorf("Expected status to survive edit, got '%s'", rec.Status)
	}
	if rec.CreatedAt == nil || !rec.CreatedAt.Equal(issued) {
		t.Errorf("Expected created_at to survive edit, got %v", rec.CreatedAt)
	}
	if rec.ExpiryDate == nil || !rec.ExpiryDate.Equal(newExpiry) {
		t.Errorf("Expected expiry_date to be replaced, got %v", rec.ExpiryDate)
	}
	if rec.Notes != "renewed" {
		t.Errorf("Expected notes 'renewed', got '%s'", rec.Notes)
	}
	// 证书号未在 patch 中给出 → 清空（编辑表单整体覆盖）
	if rec.CertificationID != "" {
		t.Errorf("Expected certification_id cleared, got '%s'", rec.CertificationID)
	}
}

func TestPostgresDefinitionsRepository_List(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	f := seedFixture(t, db)
	defer cleanupFixture(t, db, f)

	repo := NewPostgresDefinitionsRepository(db)
	ctx := context.Background()

	defs, err := repo.ListDefinitions(ctx, f.tenantID)
	if err != nil {
		t.Fatalf("ListDefinitions failed: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("Expected 1 definition, got %d", len(defs))
	}
	if defs[0].Name != "UT Level 2" || !defs[0].RequiresWitness {
		t.Errorf("Unexpected definition: %+v", defs[0])
	}

	def, err := repo.GetDefinition(ctx, f.tenantID, f.competencyID)
	if err != nil {
		t.Fatalf("GetDefinition failed: %v", err)
	}
	if def.FieldType != domain.FieldTypeCertification {
		t.Errorf("Expected field_type '%s', got '%s'", domain.FieldTypeCertification, def.FieldType)
	}

	if _, err := repo.GetDefinition(ctx, f.tenantID, uuid.NewString()); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for unknown definition, got %v", err)
	}
}
