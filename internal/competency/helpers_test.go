package competency

import (
	"time"

	"compmatrix-data/internal/domain"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func testDef(id, name, category, fieldType string) *domain.CompetencyDefinition {
	return &domain.CompetencyDefinition{
		CompetencyID: id,
		TenantID:     "t1",
		Name:         name,
		CategoryName: category,
		FieldType:    fieldType,
	}
}

func testRecord(competencyID, status string, expiry *time.Time) *domain.CompetencyRecord {
	return &domain.CompetencyRecord{
		RecordID:     "rec-" + competencyID,
		TenantID:     "t1",
		CompetencyID: competencyID,
		Status:       status,
		ExpiryDate:   expiry,
	}
}

func testPerson(id, username, email, orgID, orgName, role string, recs ...*domain.CompetencyRecord) *domain.Person {
	return &domain.Person{
		PersonID:         id,
		TenantID:         "t1",
		Username:         username,
		Email:            email,
		OrganizationID:   orgID,
		OrganizationName: orgName,
		Role:             role,
		Competencies:     recs,
	}
}
