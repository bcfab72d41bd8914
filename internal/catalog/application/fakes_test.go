package application

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/cardstore/internal/catalog/domain"
)

// fakeProductRepo 以内存表模拟商品仓储。读方法返回副本，
// 写方法按列语义落库，与 mysql 实现的列级更新行为对应。
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uint]domain.Product

	// afterList 在 ListBelowThreshold 返回快照后执行，
	// 用于模拟巡检读与写之间其他事务提交的库存变动
	afterList func(r *fakeProductRepo)
	// afterGet 同上，针对 GetByID
	afterGet func(r *fakeProductRepo)
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uint]domain.Product{}}
}

func (r *fakeProductRepo) put(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *fakeProductRepo) get(id uint) domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id]
}

func (r *fakeProductRepo) setStock(id uint, stock int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.products[id]
	p.Stock = stock
	r.products[id] = p
}

func (r *fakeProductRepo) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeProductRepo) GetWithLock(ctx context.Context, id uint) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	r.mu.Lock()
	p, ok := r.products[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if r.afterGet != nil {
		r.afterGet(r)
	}
	return &p, nil
}

func (r *fakeProductRepo) Save(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == 0 {
		product.ID = uint(len(r.products) + 1)
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) UpdateInfo(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	cur.Name = product.Name
	cur.Description = product.Description
	cur.Price = product.Price
	cur.DiscountPercent = product.DiscountPercent
	cur.ImageURL = product.ImageURL
	cur.Category = product.Category
	cur.OnSale = product.OnSale
	cur.IsNew = product.IsNew
	r.products[product.ID] = cur
	return nil
}

func (r *fakeProductRepo) UpdateAlertFlags(ctx context.Context, productID uint, lowNotified, outNotified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	cur.LowStockNotified = lowNotified
	cur.OutOfStockNotified = outNotified
	r.products[productID] = cur
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, category string, offset, limit int) ([]*domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.products {
		if category != "" && p.Category != category {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) ListBelowThreshold(ctx context.Context, lowThreshold int) ([]*domain.Product, error) {
	r.mu.Lock()
	var out []*domain.Product
	for _, p := range r.products {
		if p.Stock <= lowThreshold {
			cp := p
			out = append(out, &cp)
		}
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if r.afterList != nil {
		r.afterList(r)
	}
	return out, nil
}

func (r *fakeProductRepo) RearmAlertsAbove(ctx context.Context, lowThreshold int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.products {
		if p.Stock > lowThreshold {
			p.LowStockNotified = false
			p.OutOfStockNotified = false
			r.products[id] = p
		}
	}
	return nil
}

type publishedAlert struct {
	topic string
	key   string
	event any
}

type fakeAlertPublisher struct {
	mu     sync.Mutex
	events []publishedAlert
	err    error
}

func (p *fakeAlertPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedAlert{topic: topic, key: key, event: event})
	return nil
}

func (p *fakeAlertPublisher) PublishInTx(ctx context.Context, tx any, topic, key string, event any) error {
	return p.Publish(ctx, topic, key, event)
}

func (p *fakeAlertPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}
