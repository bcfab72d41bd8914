package domain

import (
	"errors"

	"gorm.io/gorm"
)

// ErrCartNotFound 用户还没有购物车
var ErrCartNotFound = errors.New("carrinho nao encontrado")

// Cart 购物车，一个登录用户一个。
// 不持有价格：价格在结账时从商品表实时读取。
type Cart struct {
	gorm.Model
	UserID string     `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string { return "carrinhos" }

// CartItem 购物车条目
type CartItem struct {
	gorm.Model
	CartID    uint `gorm:"column:carrinho_id;index;not null" json:"carrinho_id"`
	ProductID uint `gorm:"column:produto_id;not null" json:"produto_id"`
	Quantity  int  `gorm:"column:quantidade;not null" json:"quantidade"`
}

func (CartItem) TableName() string { return "carrinho_itens" }

// AddItem 加购，重复商品合并数量
func (c *Cart) AddItem(productID uint, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
}

// SetQuantity 覆盖数量；qty <= 0 等同移除
func (c *Cart) SetQuantity(productID uint, qty int) {
	if qty <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
}

// RemoveItem 移除商品
func (c *Cart) RemoveItem(productID uint) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// IsEmpty 购物车是否为空
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }
