package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/safar/order-management/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductService struct {
	uowFactory domain.UnitOfWorkFactory
}

func NewProductService(uowFactory domain.UnitOfWorkFactory) *ProductService {
	return &ProductService{uowFactory: uowFactory}
}

func (s *ProductService) GetAll(ctx context.Context) ([]ProductView, error) {
	products, err := s.uowFactory.NewUnitOfWork().Products().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, *toProductView(&products[i]))
	}
	return views, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	product, err := s.uowFactory.NewUnitOfWork().Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductView(product), nil
}

func (s *ProductService) Create(ctx context.Context, name string, price decimal.Decimal, stock int) (*ProductView, error) {
	product, err := domain.NewProduct(name, price, stock)
	if err != nil {
		return nil, err
	}

	if err := s.uowFactory.NewUnitOfWork().Products().Add(ctx, product); err != nil {
		return nil, err
	}

	return toProductView(product), nil
}
