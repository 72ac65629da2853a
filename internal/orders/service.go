package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/pagination"
)

// Service exposes the order history reads.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	out := &OrderList{
		Orders:     make([]OrderSummary, 0, len(page.Orders)),
		NextCursor: page.NextCursor,
	}
	for _, o := range page.Orders {
		out.Orders = append(out.Orders, NewOrderSummary(o))
	}
	return out, nil
}

func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	detail := NewOrderDetail(*order)
	return &detail, nil
}
