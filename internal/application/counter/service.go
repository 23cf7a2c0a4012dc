// Package counter implementa la asignación atómica de códigos secuenciales por categoría.
package counter

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/robocode-api/internal/application/dto"
	"github.com/jhoicas/robocode-api/internal/domain"
	"github.com/jhoicas/robocode-api/internal/domain/code"
	"github.com/jhoicas/robocode-api/internal/domain/entity"
	"github.com/jhoicas/robocode-api/internal/domain/repository"
	"github.com/jhoicas/robocode-api/pkg/metrics"
)

// Service asigna códigos "{categoría}-{NNNN}". No guarda conteos en memoria:
// cada llamada relee la fila dentro de su propia transacción con bloqueo (SELECT FOR UPDATE),
// por lo que es seguro con varios procesos sobre la misma base.
type Service struct {
	txRunner TxRunner
	reader   repository.CounterReader
	schema   SchemaBootstrapper
}

// NewService construye el servicio.
func NewService(txRunner TxRunner, reader repository.CounterReader, schema SchemaBootstrapper) *Service {
	return &Service{txRunner: txRunner, reader: reader, schema: schema}
}

// EnsureSchema crea la tabla de contadores si no existe. Se invoca una vez al arrancar el proceso.
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.schema.EnsureSchema(ctx)
}

// NextCode incrementa el contador de la categoría y devuelve el código formateado.
func (s *Service) NextCode(ctx context.Context, category string) (string, error) {
	issued, err := s.Next(ctx, category)
	if err != nil {
		return "", err
	}
	return issued.Code, nil
}

// Next es NextCode devolviendo también la categoría normalizada y el conteo asignado.
func (s *Service) Next(ctx context.Context, category string) (*entity.IssuedCode, error) {
	start := time.Now()
	issued, err := s.next(ctx, category)
	metrics.ObserveNextCode(errorKind(err), time.Since(start))
	return issued, err
}

func (s *Service) next(ctx context.Context, raw string) (*entity.IssuedCode, error) {
	category, err := code.NormalizeCategory(raw)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.txRunner.Run(ctx, func(repo repository.CounterRepository) error {
		n, err := increment(ctx, repo, category)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return nil, asStoreError("next code", err)
	}

	return &entity.IssuedCode{
		Category: category,
		Count:    count,
		Code:     code.Format(category, count),
	}, nil
}

// increment: bloquea la fila, la crea con 1 si no existe o suma 1 si existe.
func increment(ctx context.Context, repo repository.CounterRepository, category string) (int64, error) {
	counter, err := repo.GetForUpdate(ctx, category)
	if err != nil {
		return 0, err
	}
	if counter == nil {
		created, err := repo.Create(ctx, &entity.Counter{Category: category, Count: 1})
		if err != nil {
			return 0, err
		}
		if created {
			return 1, nil
		}
		// Otra transacción insertó la categoría entre el SELECT y el INSERT; ya confirmó,
		// así que la fila existe y puede bloquearse.
		counter, err = repo.GetForUpdate(ctx, category)
		if err != nil {
			return 0, err
		}
		if counter == nil {
			return 0, &domain.StoreError{Op: "lock counter", Kind: domain.StoreQuery, Err: domain.ErrNotFound}
		}
	}

	counter.Count++
	if err := repo.Update(ctx, counter); err != nil {
		return 0, err
	}
	return counter.Count, nil
}

// Get devuelve el estado actual de un contador sin modificarlo. nil si la categoría nunca se pidió.
func (s *Service) Get(ctx context.Context, raw string) (*dto.CounterResponse, error) {
	category, err := code.NormalizeCategory(raw)
	if err != nil {
		return nil, err
	}
	counter, err := s.reader.GetByCategory(ctx, category)
	if err != nil {
		return nil, asStoreError("get counter", err)
	}
	if counter == nil {
		return nil, nil
	}
	out := toCounterResponse(counter)
	return &out, nil
}

// List devuelve los contadores ordenados por categoría.
func (s *Service) List(ctx context.Context, limit, offset int) (*dto.CounterListResponse, error) {
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.DefaultPage()

	counters, err := s.reader.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, asStoreError("list counters", err)
	}
	total, err := s.reader.Count(ctx)
	if err != nil {
		return nil, asStoreError("count counters", err)
	}

	items := make([]dto.CounterResponse, 0, len(counters))
	for _, c := range counters {
		items = append(items, toCounterResponse(c))
	}
	return &dto.CounterListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func toCounterResponse(c *entity.Counter) dto.CounterResponse {
	out := dto.CounterResponse{Category: c.Category, Count: c.Count}
	if c.Count > 0 {
		out.LastCode = code.Format(c.Category, c.Count)
	}
	return out
}

// asStoreError garantiza que todo fallo fuera de validación llegue al borde como StoreError.
func asStoreError(op string, err error) error {
	var vErr *domain.ValidationError
	var sErr *domain.StoreError
	if errors.As(err, &vErr) || errors.As(err, &sErr) {
		return err
	}
	kind := domain.StoreQuery
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = domain.StoreCanceled
	}
	return &domain.StoreError{Op: op, Kind: kind, Err: err}
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return "validation"
	}
	if kind := domain.StoreErrorKind(err); kind != "" {
		return kind
	}
	return domain.StoreQuery
}
