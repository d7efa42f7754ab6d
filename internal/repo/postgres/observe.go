package postgres

import "github.com/geocoder89/postboard/internal/observability"

// dbObserver times a logical DB operation when metrics are configured.
type dbObserver struct {
	prom *observability.Prom
}

func (o dbObserver) observe(op string, fn func() error) error {
	if o.prom != nil {
		return o.prom.ObserveDB(op, fn)
	}
	return fn()
}
