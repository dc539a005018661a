package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidPrecondition = errors.New("precondición no cumplida")
	ErrInvalidTransition   = errors.New("transición de estado inválida")
	ErrInsufficientQty     = errors.New("cantidad insuficiente para devolver")
	ErrTransientStore      = errors.New("falla transitoria del almacenamiento")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
)

// ErrInvalidTarget se devuelve cuando el estado destino no existe en el catálogo.
// Es una variante de ErrInvalidTransition: errors.Is funciona con ambos.
var ErrInvalidTarget = fmt.Errorf("%w: estado destino desconocido", ErrInvalidTransition)

// InsufficientQuantityError detalla qué producto no tiene cantidad disponible para devolver.
type InsufficientQuantityError struct {
	ProductID  string
	SaleItemID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

// Shortfall cantidad que falta para cubrir lo solicitado.
func (e *InsufficientQuantityError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("cantidad insuficiente para devolver del producto %s: solicitado %s, disponible %s (faltan %s)",
		e.ProductID, e.Requested.String(), e.Available.String(), e.Shortfall().String())
}

// Is permite errors.Is(err, ErrInsufficientQty).
func (e *InsufficientQuantityError) Is(target error) bool {
	return target == ErrInsufficientQty
}
