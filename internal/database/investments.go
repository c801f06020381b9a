package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Products ---

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.Id, &p.Name, &p.Category, &p.Risk, &p.MinimumAmount, &p.ExpectedReturn,
		&p.Liquidity, &p.Description, &p.IsActive)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Service) GetProduct(ctx context.Context, productId string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, queryGetProductById, productId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrProductNotFound, productId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// FindProductByName ignores is_active; the earliest row wins.
func (s *Service) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, queryGetProductByName, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrProductNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

func (s *Service) CreateProduct(ctx context.Context, params store.CreateProductParams) (*models.Product, error) {
	p := &models.Product{
		Id:             uuid.New().String(),
		Name:           params.Name,
		Category:       params.Category,
		Risk:           params.Risk,
		MinimumAmount:  params.MinimumAmount.Round(models.ScaleBRL),
		ExpectedReturn: params.ExpectedReturn.Round(models.ScalePercent),
		Liquidity:      params.Liquidity,
		Description:    params.Description,
		IsActive:       params.IsActive,
	}
	_, err := s.db.ExecContext(ctx, queryInsertProduct,
		p.Id, p.Name, p.Category, p.Risk,
		p.MinimumAmount.StringFixed(models.ScaleBRL),
		p.ExpectedReturn.StringFixed(models.ScalePercent),
		p.Liquidity, p.Description, p.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// --- Positions ---

func scanPosition(row rowScanner) (*models.Position, error) {
	p := &models.Position{}
	err := row.Scan(&p.Id, &p.AccountId, &p.ProductId, &p.Amount, &p.CurrentValue, &p.ReturnAmount,
		&p.ReturnPercentage, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) queryPositions(ctx context.Context, query string, args ...interface{}) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *p)
	}
	return positions, rows.Err()
}

func (s *Service) ListPositions(ctx context.Context, accountId string) ([]models.Position, error) {
	return s.queryPositions(ctx, queryGetPositions, accountId)
}

func (s *Service) ListActivePositions(ctx context.Context) ([]models.Position, error) {
	return s.queryPositions(ctx, queryGetActivePositions)
}

func (s *Service) CreatePosition(ctx context.Context, params store.CreatePositionParams) (*models.Position, error) {
	position, err := s.insertPosition(ctx, s.db, params)
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (s *Service) insertPosition(ctx context.Context, ex execer, params store.CreatePositionParams) (models.Position, error) {
	now := s.now()
	p := models.Position{
		Id:               uuid.New().String(),
		AccountId:        params.AccountId,
		ProductId:        params.ProductId,
		Amount:           params.Amount.Round(models.ScaleBRL),
		CurrentValue:     params.CurrentValue.Round(models.ScaleBRL),
		ReturnAmount:     params.ReturnAmount.Round(models.ScaleBRL),
		ReturnPercentage: params.ReturnPercentage.Round(models.ScalePercent),
		Status:           models.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := ex.ExecContext(ctx, queryInsertPosition,
		p.Id, p.AccountId, p.ProductId,
		p.Amount.StringFixed(models.ScaleBRL),
		p.CurrentValue.StringFixed(models.ScaleBRL),
		p.ReturnAmount.StringFixed(models.ScaleBRL),
		p.ReturnPercentage.StringFixed(models.ScalePercent),
		p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return models.Position{}, fmt.Errorf("failed to insert position: %w", err)
	}
	return p, nil
}

// UpdatePosition overwrites the valuation fields; unknown ids are a logged no-op.
func (s *Service) UpdatePosition(ctx context.Context, positionId string, currentValue, returnAmount, returnPercentage decimal.Decimal) error {
	result, err := s.db.ExecContext(ctx, queryUpdatePosition,
		currentValue.Round(models.ScaleBRL).StringFixed(models.ScaleBRL),
		returnAmount.Round(models.ScaleBRL).StringFixed(models.ScaleBRL),
		returnPercentage.Round(models.ScalePercent).StringFixed(models.ScalePercent),
		s.now(), positionId)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Warn("Position update for unknown position ignored", zap.String("position_id", positionId))
	}
	return nil
}
