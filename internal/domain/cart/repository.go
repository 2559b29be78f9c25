package cart

import "context"

type Repository interface {
	Save(ctx context.Context, c *Cart) error
	Get(ctx context.Context, id string) (*Cart, error)
	Delete(ctx context.Context, id string) error
}
