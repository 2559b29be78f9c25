package product

import "context"

type Repository interface {
	Save(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Deduct(ctx context.Context, id string, quantity int) error
}
