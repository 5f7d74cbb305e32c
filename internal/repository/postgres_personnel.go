package repository

import (
	"context"
	"database/sql"
	"fmt"

	"compmatrix-data/internal/domain"
)

// PostgresPersonnelRepository 人员Repository实现（强类型版本）
type PostgresPersonnelRepository struct {
	db *sql.DB
}

// NewPostgresPersonnelRepository 创建人员Repository
func NewPostgresPersonnelRepository(db *sql.DB) *PostgresPersonnelRepository {
	return &PostgresPersonnelRepository{db: db}
}

// 确保实现了接口
var _ PersonnelRepository = (*PostgresPersonnelRepository)(nil)

const personColumns = `
	p.person_id::text,
	p.tenant_id::text,
	p.username,
	p.email,
	p.organization_id::text,
	o.organization_name,
	p.role
`

// ListPersonnel 取出整个租户的人员（records 已附上）
func (r *PostgresPersonnelRepository) ListPersonnel(ctx context.Context, tenantID string) ([]*domain.Person, error) {
	if tenantID == "" {
		return nil, ErrNotFound
	}

	query := `
		SELECT ` + personColumns + `
		FROM personnel p
		LEFT JOIN organizations o ON o.organization_id = p.organization_id
		WHERE p.tenant_id = $1
		ORDER BY p.username
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list personnel: %w", err)
	}
	defer rows.Close()

	var people []*domain.Person
	byID := map[string]*domain.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
		byID[p.PersonID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachRecords(ctx, tenantID, byID); err != nil {
		return nil, err
	}
	return people, nil
}

// GetPerson 获取单个人员（records 已附上）
func (r *PostgresPersonnelRepository) GetPerson(ctx context.Context, tenantID, personID string) (*domain.Person, error) {
	if tenantID == "" || personID == "" {
		return nil, ErrNotFound
	}

	query := `
		SELECT ` + personColumns + `
		FROM personnel p
		LEFT JOIN organizations o ON o.organization_id = p.organization_id
		WHERE p.tenant_id = $1 AND p.person_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, tenantID, personID)
	p, err := scanPerson(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}

	byID := map[string]*domain.Person{p.PersonID: p}
	if err := r.attachRecords(ctx, tenantID, byID); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveRecord upsert（UNIQUE(person_id, competency_id)），返回 record_id
func (r *PostgresPersonnelRepository) SaveRecord(ctx context.Context, tenantID string, rec *domain.CompetencyRecord) (string, error) {
	if tenantID == "" || rec == nil || rec.PersonID == "" || rec.CompetencyID == "" {
		return "", fmt.Errorf("save record: missing person_id or competency_id")
	}

	// status 语义与内存 merge 一致：新建默认 active，编辑缺省保留原值
	var recordID string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO competency_records (
			tenant_id, person_id, competency_id, status,
			created_at, expiry_date,
			issuing_body, certification_id, value, notes,
			witness_checked, witnessed_by, witnessed_at, witness_notes
		) VALUES ($1, $2, $3, CASE WHEN $4 = '' THEN 'active' ELSE $4 END, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (person_id, competency_id)
		DO UPDATE SET status = CASE WHEN $4 = '' THEN competency_records.status ELSE $4 END,
		              created_at = COALESCE(EXCLUDED.created_at, competency_records.created_at),
		              expiry_date = EXCLUDED.expiry_date,
		              issuing_body = EXCLUDED.issuing_body,
		              certification_id = EXCLUDED.certification_id,
		              value = EXCLUDED.value,
		              notes = EXCLUDED.notes,
		              witness_checked = EXCLUDED.witness_checked,
		              witnessed_by = EXCLUDED.witnessed_by,
		              witnessed_at = EXCLUDED.witnessed_at,
		              witness_notes = EXCLUDED.witness_notes
		RETURNING record_id::text
	`,
		tenantID, rec.PersonID, rec.CompetencyID, rec.Status,
		rec.CreatedAt, rec.ExpiryDate,
		nullIfEmpty(rec.IssuingBody), nullIfEmpty(rec.CertificationID),
		nullIfEmpty(rec.Value), nullIfEmpty(rec.Notes),
		rec.WitnessChecked, nullIfEmpty(rec.WitnessedBy), rec.WitnessedAt, nullIfEmpty(rec.WitnessNotes),
	).Scan(&recordID)
	if err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}
	return recordID, nil
}

// attachRecords 批量附加 records（避免 N+1）
func (r *PostgresPersonnelRepository) attachRecords(ctx context.Context, tenantID string, byID map[string]*domain.Person) error {
	if len(byID) == 0 {
		return nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			record_id::text,
			tenant_id::text,
			person_id::text,
			competency_id::text,
			status,
			created_at,
			expiry_date,
			issuing_body,
			certification_id,
			value,
			notes,
			witness_checked,
			witnessed_by,
			witnessed_at,
			witness_notes
		FROM competency_records
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.CompetencyRecord
		var status, issuingBody, certificationID, value, notes, witnessedBy, witnessNotes sql.NullString
		var createdAt, expiryDate, witnessedAt sql.NullTime

		if err := rows.Scan(
			&rec.RecordID,
			&rec.TenantID,
			&rec.PersonID,
			&rec.CompetencyID,
			&status,
			&createdAt,
			&expiryDate,
			&issuingBody,
			&certificationID,
			&value,
			&notes,
			&rec.WitnessChecked,
			&witnessedBy,
			&witnessedAt,
			&witnessNotes,
		); err != nil {
			return err
		}

		rec.Status = status.String
		if createdAt.Valid {
			t := createdAt.Time
			rec.CreatedAt = &t
		}
		if expiryDate.Valid {
			t := expiryDate.Time
			rec.ExpiryDate = &t
		}
		rec.IssuingBody = issuingBody.String
		rec.CertificationID = certificationID.String
		rec.Value = value.String
		rec.Notes = notes.String
		rec.WitnessedBy = witnessedBy.String
		if witnessedAt.Valid {
			t := witnessedAt.Time
			rec.WitnessedAt = &t
		}
		rec.WitnessNotes = witnessNotes.String

		if p, ok := byID[rec.PersonID]; ok {
			p.Competencies = append(p.Competencies, &rec)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	var p domain.Person
	var email, orgID, orgName sql.NullString
	if err := row.Scan(
		&p.PersonID,
		&p.TenantID,
		&p.Username,
		&email,
		&orgID,
		&orgName,
		&p.Role,
	); err != nil {
		return nil, err
	}
	p.Email = email.String
	p.OrganizationID = orgID.String
	p.OrganizationName = orgName.String
	return &p, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
