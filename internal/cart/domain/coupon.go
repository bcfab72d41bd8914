// 生成摘要：优惠券实体与校验规则。券绑定用户、单次使用、可设过期时间。
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrCouponCodeEmpty 空券码
	ErrCouponCodeEmpty = errors.New("codigo do cupom nao pode ser vazio")
	// ErrCouponInvalid 券不存在、不属于该用户或已使用
	ErrCouponInvalid = errors.New("cupom invalido ou ja utilizado")
	// ErrCouponExpired 券已过期
	ErrCouponExpired = errors.New("cupom expirado")
)

// CouponType 优惠券类型
type CouponType string

const (
	CouponPercent CouponType = "percentual"
	CouponFixed   CouponType = "fixo"
)

// Coupon 优惠券，user_id 绑定防止跨用户盗用
type Coupon struct {
	gorm.Model
	Code      string          `gorm:"column:codigo;type:varchar(32);uniqueIndex;not null" json:"codigo"`
	Type      CouponType      `gorm:"column:tipo;type:varchar(16);not null" json:"tipo"`
	Value     decimal.Decimal `gorm:"column:valor;type:decimal(10,2);not null" json:"valor"`
	UserID    string          `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Used      bool            `gorm:"column:usado;not null;default:false" json:"usado"`
	ExpiresAt *time.Time      `gorm:"column:expira_em" json:"expira_em"`
}

func (Coupon) TableName() string { return "cupons" }

// Validate 校验券对给定用户是否可用
func (cp *Coupon) Validate(userID string, now time.Time) error {
	if cp.UserID != userID || cp.Used {
		return ErrCouponInvalid
	}
	if cp.ExpiresAt != nil && now.After(*cp.ExpiresAt) {
		return ErrCouponExpired
	}
	return nil
}

// DiscountOn 对小计的抵扣金额，封顶不超过小计
func (cp *Coupon) DiscountOn(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch cp.Type {
	case CouponPercent:
		d = subtotal.Mul(cp.Value).Div(decimal.NewFromInt(100))
	case CouponFixed:
		d = cp.Value
	default:
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}
