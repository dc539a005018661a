// Package admission limita cuántas transacciones críticas se ejecutan a la vez contra la BD.
// Es un semáforo de conteo con cola FIFO: no da exclusión por venta ni por producto.
package admission

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent capacidad por defecto.
const DefaultMaxConcurrent = 5

// ErrQueueAborted el contexto del llamador terminó mientras esperaba turno.
var ErrQueueAborted = errors.New("admission: espera en cola cancelada")

// Stats foto del controlador para observabilidad.
type Stats struct {
	Running       int `json:"running"`
	Queued        int `json:"queued"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Controller compuerta de concurrencia acotada. Seguro para uso concurrente.
type Controller struct {
	sem     *semaphore.Weighted
	max     int
	running atomic.Int64
	queued  atomic.Int64
}

// New construye el controlador con la capacidad indicada (mínimo 1).
func New(maxConcurrent int) *Controller {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Controller{
		sem: semaphore.NewWeighted(int64(maxConcurrent)),
		max: maxConcurrent,
	}
}

// Run bloquea hasta obtener un cupo, ejecuta fn y libera el cupo al terminar (con o sin error).
// Los llamadores en espera se atienden en orden de llegada.
func (c *Controller) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !c.sem.TryAcquire(1) {
		c.queued.Add(1)
		err := c.sem.Acquire(ctx, 1)
		c.queued.Add(-1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrQueueAborted, err)
		}
	}
	c.running.Add(1)
	defer func() {
		c.running.Add(-1)
		c.sem.Release(1)
	}()
	return fn(ctx)
}

// Stats devuelve los contadores actuales.
func (c *Controller) Stats() Stats {
	return Stats{
		Running:       int(c.running.Load()),
		Queued:        int(c.queued.Load()),
		MaxConcurrent: c.max,
	}
}
