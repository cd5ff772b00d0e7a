package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/order-management/internal/domain"
	"github.com/safar/order-management/internal/events"
	"go.uber.org/zap"
)

// EventPublisher delivers integration events to a named queue with
// at-least-once semantics.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

type CreateOrderInput struct {
	CustomerName  string                 `json:"customerName"`
	CustomerEmail string                 `json:"customerEmail"`
	Items         []CreateOrderItemInput `json:"items"`
}

type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// OrderService orchestrates order creation and cancellation: validation,
// transactional persistence, domain-to-integration event translation and
// publish. Events are published inside the open transaction and the commit
// happens after all publishes; a crash between publish and commit can lose
// or duplicate an event relative to persisted state. That dual-write window
// is a known, accepted gap. There is no outbox.
type OrderService struct {
	uowFactory domain.UnitOfWorkFactory
	publisher  EventPublisher
	logger     *zap.Logger
}

func NewOrderService(uowFactory domain.UnitOfWorkFactory, publisher EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderView, error) {
	uow := s.uowFactory.NewUnitOfWork()

	if err := s.validateCreateOrder(ctx, uow.Products(), input); err != nil {
		return nil, err
	}

	if err := uow.BeginTransaction(ctx); err != nil {
		return nil, err
	}

	requests := make([]domain.OrderItemRequest, 0, len(input.Items))
	for _, item := range input.Items {
		requests = append(requests, domain.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	factory := domain.NewOrderFactory(uow.Products())
	order, err := factory.Create(ctx, input.CustomerName, input.CustomerEmail, requests)
	if err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	if err := uow.Orders().Add(ctx, order); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	if err := uow.SaveChanges(ctx); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	if err := s.publishEvents(ctx, order.PopEvents()); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	if err := uow.CommitTransaction(); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))

	// Re-read after commit so the view reflects materialized associations.
	created, err := uow.Orders().GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return toOrderView(created), nil
}

func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	uow := s.uowFactory.NewUnitOfWork()

	order, err := uow.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uow.BeginTransaction(ctx); err != nil {
		return nil, err
	}

	raised, err := order.Cancel()
	if err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	if err := uow.Orders().Update(ctx, order); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	if err := uow.SaveChanges(ctx); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	order.PopEvents()
	if err := s.publishEvents(ctx, raised); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	if err := uow.CommitTransaction(); err != nil {
		uow.RollbackTransaction()
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber))

	return toOrderView(order), nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.uowFactory.NewUnitOfWork().Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderView(order), nil
}

func (s *OrderService) GetOrders(ctx context.Context, page, pageSize int, status *domain.OrderStatus) (*PagedResult[OrderView], error) {
	orders := s.uowFactory.NewUnitOfWork().Orders()

	paged, err := orders.GetPaged(ctx, page, pageSize, status)
	if err != nil {
		return nil, err
	}

	totalCount, err := orders.GetCount(ctx, status)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(paged))
	for i := range paged {
		views = append(views, *toOrderView(&paged[i]))
	}

	return newPagedResult(views, totalCount, page, pageSize), nil
}

// publishEvents translates each drained domain event to its integration
// shape and publishes it to the queue named for its type. The type switch is
// exhaustive over the closed event set; an unknown event is a bug.
func (s *OrderService) publishEvents(ctx context.Context, domainEvents []domain.DomainEvent) error {
	for _, domainEvent := range domainEvents {
		switch e := domainEvent.(type) {
		case domain.OrderCreated:
			items := make([]events.OrderItem, 0, len(e.Items))
			for _, item := range e.Items {
				items = append(items, events.OrderItem{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					UnitPrice: item.UnitPrice,
				})
			}

			integrationEvent := events.OrderCreatedEvent{
				OrderID:       e.OrderID,
				OrderNumber:   e.OrderNumber,
				CustomerName:  e.CustomerName,
				CustomerEmail: e.CustomerEmail,
				TotalAmount:   e.TotalAmount,
				Items:         items,
				CreatedAt:     e.OccurredOn,
			}
			if err := s.publisher.Publish(ctx, events.OrderCreatedQueue, integrationEvent); err != nil {
				return err
			}

		case domain.OrderCancelled:
			integrationEvent := events.OrderCancelledEvent{
				OrderID:       e.OrderID,
				OrderNumber:   e.OrderNumber,
				CustomerEmail: e.CustomerEmail,
				CancelledAt:   e.OccurredOn,
			}
			if err := s.publisher.Publish(ctx, events.OrderCancelledQueue, integrationEvent); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unhandled domain event %T", domainEvent)
		}
	}

	return nil
}
