package interfaces

import "context"

// PriceSource supplies the ordered closing-price history of one asset.
type PriceSource interface {
	Closes(ctx context.Context) ([]float64, error)
}
