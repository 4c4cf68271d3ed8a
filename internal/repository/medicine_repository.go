package repository

import (
	"database/sql"

	"medisync/internal/database"
	"medisync/internal/models"
)

type MedicineRepository struct {
	db *database.DB
}

func NewMedicineRepository(db *database.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

// Create adds a formulary entry.
func (r *MedicineRepository) Create(m *models.Medicine) error {
	query := `
		INSERT INTO medicines (brand_name, generic_name, formulation, strength, is_controlled)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query, m.BrandName, m.GenericName, m.Formulation, m.Strength, m.IsControlled)
	if err != nil {
		return storageErr("create medicine", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get last insert id", err)
	}

	m.ID = id
	return nil
}

// GetByID retrieves a medicine by ID
func (r *MedicineRepository) GetByID(id int64) (*models.Medicine, error) {
	query := `
		SELECT medicine_id, brand_name, generic_name, formulation, strength, is_controlled, created_at
		FROM medicines
		WHERE medicine_id = ?
	`
	var m models.Medicine
	err := r.db.QueryRow(query, id).Scan(
		&m.ID,
		&m.BrandName,
		&m.GenericName,
		&m.Formulation,
		&m.Strength,
		&m.IsControlled,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get medicine", err)
	}

	return &m, nil
}

// List retrieves the whole formulary alphabetically by brand name.
func (r *MedicineRepository) List() ([]*models.Medicine, error) {
	query := `
		SELECT medicine_id, brand_name, generic_name, formulation, strength, is_controlled, created_at
		FROM medicines
		ORDER BY brand_name
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, storageErr("list medicines", err)
	}
	defer rows.Close()

	return r.scanMedicines(rows)
}

// Search filters medicines by brand or generic name.
func (r *MedicineRepository) Search(term string) ([]*models.Medicine, error) {
	query := `
		SELECT medicine_id, brand_name, generic_name, formulation, strength, is_controlled, created_at
		FROM medicines
		WHERE brand_name LIKE ? OR generic_name LIKE ?
		ORDER BY brand_name
	`
	like := "%" + term + "%"
	rows, err := r.db.Query(query, like, like)
	if err != nil {
		return nil, storageErr("search medicines", err)
	}
	defer rows.Close()

	return r.scanMedicines(rows)
}

func (r *MedicineRepository) scanMedicines(rows *sql.Rows) ([]*models.Medicine, error) {
	var medicines []*models.Medicine
	for rows.Next() {
		var m models.Medicine
		err := rows.Scan(
			&m.ID,
			&m.BrandName,
			&m.GenericName,
			&m.Formulation,
			&m.Strength,
			&m.IsControlled,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, storageErr("scan medicine", err)
		}
		medicines = append(medicines, &m)
	}

	return medicines, rows.Err()
}
