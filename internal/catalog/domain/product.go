// 生成摘要：商品聚合根，内含库存台账的阈值告警判定逻辑。
// 假设：库存永不为负；告警按"跨入阈值区间"边沿触发，而不是区间内反复触发。
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("produto nao encontrado")
)

// ErrInsufficientStock 库存不足，携带商品名用于面向用户的提示
type ErrInsufficientStock struct {
	ProductName string
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("estoque insuficiente para o produto %q", e.ProductName)
}

// Product 商品实体，字段对应 produtos 表
type Product struct {
	gorm.Model
	Name            string          `gorm:"column:nome;type:varchar(255);not null" json:"nome"`
	Description     string          `gorm:"column:descricao;type:text" json:"descricao"`
	Price           decimal.Decimal `gorm:"column:preco;type:decimal(10,2);not null" json:"preco"`
	DiscountPercent decimal.Decimal `gorm:"column:desconto_percentual;type:decimal(5,2);not null;default:0" json:"desconto_percentual"`
	ImageURL        string          `gorm:"column:imagem_url;type:varchar(500)" json:"imagem_url"`
	Category        string          `gorm:"column:categoria;type:varchar(100);index" json:"categoria"`
	Stock           int             `gorm:"column:estoque;not null;default:0" json:"estoque"`
	OnSale          bool            `gorm:"column:promocao;not null;default:false" json:"promocao"`
	IsNew           bool            `gorm:"column:novo;not null;default:false" json:"novo"`
	// 粘性告警标志：避免同一低库存区间内重复告警；库存回升越过阈值后复位
	LowStockNotified   bool `gorm:"column:low_stock_notified;not null;default:false" json:"low_stock_notified"`
	OutOfStockNotified bool `gorm:"column:out_of_stock_notified;not null;default:false" json:"out_of_stock_notified"`
}

func (Product) TableName() string { return "produtos" }

// UnitPrice 折后单价 preco * (1 - desconto/100)
func (p *Product) UnitPrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(p.DiscountPercent.Div(decimal.NewFromInt(100)))
	return p.Price.Mul(factor)
}

// HasSufficientStock 库存充足性检查，必须在行锁保护下调用
func (p *Product) HasSufficientStock(qty int) bool {
	return p.Stock >= qty
}

// StockAlertKind 库存告警类型
type StockAlertKind string

const (
	AlertLowStock StockAlertKind = "LOW"
	AlertOutStock StockAlertKind = "OUT"
)

// StockAlert 一次阈值穿越产生的告警
type StockAlert struct {
	Kind      StockAlertKind
	ProductID uint
	Name      string
	Stock     int
}

// ApplyDecrement 扣减库存并做边沿触发的阈值判定。
// previous = new + qty；仅在从阈值之上跨入区间时产生告警。
// 归零时 OUT 告警同时置位 low_stock_notified，抑制同一事件的冗余 LOW 告警。
func (p *Product) ApplyDecrement(qty, lowThreshold int) ([]StockAlert, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantidade invalida: %d", qty)
	}
	if p.Stock < qty {
		return nil, &ErrInsufficientStock{ProductName: p.Name}
	}

	previous := p.Stock
	p.Stock -= qty

	var alerts []StockAlert
	if p.Stock == 0 {
		if !p.OutOfStockNotified {
			alerts = append(alerts, StockAlert{Kind: AlertOutStock, ProductID: p.ID, Name: p.Name, Stock: p.Stock})
			p.OutOfStockNotified = true
		}
		p.LowStockNotified = true
		return alerts, nil
	}
	if previous > lowThreshold && p.Stock <= lowThreshold && !p.LowStockNotified {
		alerts = append(alerts, StockAlert{Kind: AlertLowStock, ProductID: p.ID, Name: p.Name, Stock: p.Stock})
		p.LowStockNotified = true
	}
	return alerts, nil
}

// ApplyIncrement 回补库存（取消订单返还、后台补货）。
// 回升越过阈值后复位告警标志，使未来再次跌入区间时可以重新告警。
func (p *Product) ApplyIncrement(qty, lowThreshold int) error {
	if qty <= 0 {
		return fmt.Errorf("quantidade invalida: %d", qty)
	}
	p.Stock += qty
	if p.Stock > 0 {
		p.OutOfStockNotified = false
	}
	if p.Stock > lowThreshold {
		p.LowStockNotified = false
	}
	return nil
}
