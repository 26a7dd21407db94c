package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"domain-finder/internal/common/database"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
)

var portfolioStatuses = map[string]bool{
	"holding":    true,
	"sold":       true,
	"monitoring": true,
}

// ValidPortfolioStatus reports whether s is an accepted position status.
func ValidPortfolioStatus(s string) bool {
	return portfolioStatuses[s]
}

type PortfolioStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewPortfolioStore(db *database.PostgresClient, log logger.Logger) *PortfolioStore {
	return &PortfolioStore{db: db, logger: log}
}

const portfolioColumns = `p.id, p.domain_id, p.purchase_price, p.purchase_date,
	p.sale_price, p.sale_date, p.status, p.notes, p.created_at, p.updated_at,
	d.domain_name, d.tld, d.quality_score`

// Create opens a new position for a domain.
func (s *PortfolioStore) Create(ctx context.Context, item *PortfolioItem) (*PortfolioItem, error) {
	if item.Status == "" {
		item.Status = "holding"
	}
	if !ValidPortfolioStatus(item.Status) {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("invalid portfolio status: %s", item.Status))
	}
	if item.PurchaseDate.IsZero() {
		item.PurchaseDate = time.Now().UTC()
	}

	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO portfolio_items (domain_id, purchase_price, purchase_date, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		item.DomainID, item.PurchasePrice, item.PurchaseDate, item.Status, item.Notes,
	).Scan(&id)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches one position with its domain joined in.
func (s *PortfolioStore) GetByID(ctx context.Context, id int64) (*PortfolioItem, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+portfolioColumns+`
		FROM portfolio_items p
		JOIN domains d ON d.id = p.domain_id
		WHERE p.id = $1`, id)

	item, err := scanPortfolioItem(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewResourceNotFoundError("Portfolio item", id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("portfolio.get", err)
	}
	return item, nil
}

// List returns positions, optionally filtered by status.
func (s *PortfolioStore) List(ctx context.Context, status string) ([]PortfolioItem, error) {
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolio_items p
		JOIN domains d ON d.id = p.domain_id`
	var args []interface{}
	if status != "" {
		if !ValidPortfolioStatus(status) {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("invalid portfolio status: %s", status))
		}
		query += ` WHERE p.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("portfolio.list", err)
	}
	defer rows.Close()

	var out []PortfolioItem
	for rows.Next() {
		item, err := scanPortfolioItemRows(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("portfolio.list_scan", err)
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("portfolio.list_rows", err)
	}
	return out, nil
}

// PortfolioUpdate carries the patchable fields; nil means unchanged.
type PortfolioUpdate struct {
	SalePrice *float64 `json:"sale_price"`
	SaleDate  *string  `json:"sale_date"`
	Status    *string  `json:"status"`
	Notes     *string  `json:"notes"`
}

// Update patches a position. Setting status to "sold" without a sale date
// stamps it with the current time.
func (s *PortfolioStore) Update(ctx context.Context, id int64, upd PortfolioUpdate) (*PortfolioItem, error) {
	var sets []string
	var args []interface{}

	if upd.SalePrice != nil {
		args = append(args, *upd.SalePrice)
		sets = append(sets, fmt.Sprintf("sale_price = $%d", len(args)))
	}
	if upd.SaleDate != nil {
		args = append(args, *upd.SaleDate)
		sets = append(sets, fmt.Sprintf("sale_date = $%d::timestamptz", len(args)))
	}
	if upd.Status != nil {
		if !ValidPortfolioStatus(*upd.Status) {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("invalid portfolio status: %s", *upd.Status))
		}
		args = append(args, *upd.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
		if *upd.Status == "sold" && upd.SaleDate == nil {
			sets = append(sets, "sale_date = COALESCE(sale_date, NOW())")
		}
	}
	if upd.Notes != nil {
		args = append(args, *upd.Notes)
		sets = append(sets, fmt.Sprintf("notes = $%d", len(args)))
	}

	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE portfolio_items SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("portfolio.update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperrors.NewResourceNotFoundError("Portfolio item", id)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a position.
func (s *PortfolioStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.Exec(ctx, `DELETE FROM portfolio_items WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("portfolio.delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewResourceNotFoundError("Portfolio item", id)
	}
	return nil
}

func scanPortfolioItem(row *sql.Row) (*PortfolioItem, error)      { return scanPortfolioFrom(row) }
func scanPortfolioItemRows(rows *sql.Rows) (*PortfolioItem, error) { return scanPortfolioFrom(rows) }

func scanPortfolioFrom(r rowScanner) (*PortfolioItem, error) {
	var item PortfolioItem
	err := r.Scan(
		&item.ID, &item.DomainID, &item.PurchasePrice, &item.PurchaseDate,
		&item.SalePrice, &item.SaleDate, &item.Status, &item.Notes,
		&item.CreatedAt, &item.UpdatedAt,
		&item.DomainName, &item.TLD, &item.QualityScore,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
