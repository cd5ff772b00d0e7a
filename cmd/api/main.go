package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/order-management/internal/config"
	"github.com/safar/order-management/internal/database"
	"github.com/safar/order-management/internal/domain"
	"github.com/safar/order-management/internal/messaging"
	"github.com/safar/order-management/internal/service"
	"github.com/safar/order-management/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database")

	broker, err := messaging.Connect(cfg.Broker.URL, logger)
	if err != nil {
		logger.Fatal("connect to broker", zap.Error(err))
	}
	defer broker.Close()

	st := store.New(db)
	orderService := service.NewOrderService(st, broker, logger)
	productService := service.NewProductService(st)

	if cfg.Server.SeedProducts {
		if err := seedProducts(context.Background(), productService); err != nil {
			logger.Fatal("seed products", zap.Error(err))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", handleOrders(orderService, logger))
	mux.HandleFunc("/orders/", handleOrderByID(orderService, logger))
	mux.HandleFunc("/products", handleProducts(productService, logger))
	mux.HandleFunc("/products/", handleProductByID(productService, logger))
	mux.HandleFunc("/healthz", handleHealth(db))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func handleOrders(orders *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var input service.CreateOrderInput
			if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
				respondError(w, r, http.StatusBadRequest, "Invalid request body")
				return
			}

			order, err := orders.CreateOrder(ctx, input)
			if err != nil {
				respondDomainError(w, r, logger, err)
				return
			}

			respondJSON(w, http.StatusCreated, order)

		case http.MethodGet:
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page < 1 {
				page = 1
			}
			pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
			if pageSize < 1 || pageSize > 100 {
				pageSize = 10
			}

			var status *domain.OrderStatus
			if raw := r.URL.Query().Get("status"); raw != "" {
				if parsed, ok := domain.ParseOrderStatus(raw); ok {
					status = &parsed
				}
			}

			result, err := orders.GetOrders(ctx, page, pageSize, status)
			if err != nil {
				respondDomainError(w, r, logger, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleOrderByID(orders *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		path := strings.TrimPrefix(r.URL.Path, "/orders/")

		if idStr, found := strings.CutSuffix(path, "/cancel"); found {
			if r.Method != http.MethodPut {
				respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}

			id, err := uuid.Parse(idStr)
			if err != nil {
				respondError(w, r, http.StatusBadRequest, "Invalid order ID")
				return
			}

			order, err := orders.CancelOrder(ctx, id)
			if err != nil {
				respondDomainError(w, r, logger, err)
				return
			}

			respondJSON(w, http.StatusOK, order)
			return
		}

		if r.Method != http.MethodGet {
			respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, err := uuid.Parse(path)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "Invalid order ID")
			return
		}

		order, err := orders.GetOrder(ctx, id)
		if err != nil {
			respondDomainError(w, r, logger, err)
			return
		}

		respondJSON(w, http.StatusOK, order)
	}
}

func handleProducts(products *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Name  string `json:"name"`
				Price string `json:"price"`
				Stock int    `json:"stock"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, r, http.StatusBadRequest, "Invalid request body")
				return
			}

			price, err := decimal.NewFromString(req.Price)
			if err != nil {
				respondError(w, r, http.StatusBadRequest, "Invalid price")
				return
			}

			product, err := products.Create(ctx, req.Name, price, req.Stock)
			if err != nil {
				respondDomainError(w, r, logger, err)
				return
			}

			respondJSON(w, http.StatusCreated, product)

		case http.MethodGet:
			result, err := products.GetAll(ctx)
			if err != nil {
				respondDomainError(w, r, logger, err)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleProductByID(products *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/products/"))
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "Invalid product ID")
			return
		}

		product, err := products.GetByID(ctx, id)
		if err != nil {
			respondDomainError(w, r, logger, err)
			return
		}

		respondJSON(w, http.StatusOK, product)
	}
}

func handleHealth(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type errorResponse struct {
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}

// respondDomainError maps the error taxonomy onto transport status codes:
// not-found 404, validation and invalid-operation 400, transient database
// failures 503, everything else 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	traceID := requestTraceID(r)

	switch {
	case domain.IsNotFound(err):
		respondJSON(w, http.StatusNotFound, errorResponse{Message: err.Error(), TraceID: traceID})
	case domain.IsValidation(err), domain.IsInvalidOperation(err):
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error(), TraceID: traceID})
	case database.IsRetryable(err):
		logger.Warn("transient database failure",
			zap.String("trace_id", traceID),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Message: "The service is temporarily unavailable, please retry", TraceID: traceID})
	default:
		logger.Error("request failed",
			zap.String("trace_id", traceID),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Message: "An internal server error occurred", TraceID: traceID})
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message, TraceID: requestTraceID(r)})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func requestTraceID(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}

func seedProducts(ctx context.Context, products *service.ProductService) error {
	existing, err := products.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed := []struct {
		name  string
		price string
		stock int
	}{
		{"Gaming Laptop", "1299.99", 25},
		{"Wireless Mouse", "49.99", 100},
		{"Mechanical Keyboard", "129.99", 75},
		{"4K Monitor", "399.99", 30},
		{"USB-C Hub", "79.99", 150},
		{"Webcam HD", "89.99", 60},
		{"Bluetooth Headphones", "199.99", 40},
		{"External SSD 1TB", "149.99", 80},
		{"Smartphone", "799.99", 50},
		{"Tablet", "499.99", 35},
	}

	for _, p := range seed {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return err
		}
		if _, err := products.Create(ctx, p.name, price, p.stock); err != nil {
			return err
		}
	}

	return nil
}
