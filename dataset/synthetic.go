package dataset

import (
	"fmt"

	"github.com/go-faker/faker/v4"
)

// order mirrors the shape of the Olist order dataset.
type order struct {
	OrderID             string  `faker:"uuid_hyphenated"`
	CustomerID          string  `faker:"uuid_hyphenated"`
	OrderStatus         string  `faker:"oneof: delivered, shipped, canceled, invoiced, processing"`
	PurchaseTimestamp   string  `faker:"timestamp"`
	ProductCategory     string  `faker:"word"`
	Price               float64 `faker:"amount"`
	FreightValue        float64 `faker:"amount"`
	PaymentType         string  `faker:"oneof: credit_card, boleto, voucher, debit_card"`
	PaymentInstallments int64   `faker:"boundary_start=1, boundary_end=12"`
	ReviewScore         int64   `faker:"boundary_start=1, boundary_end=5"`
	ReviewComment       string  `faker:"sentence"`
}

var syntheticColumns = []string{
	"order_id",
	"customer_id",
	"order_status",
	"order_purchase_timestamp",
	"product_category_name",
	"price",
	"freight_value",
	"payment_type",
	"payment_installments",
	"review_score",
	"review_comment_message",
}

// Synthetic generates n Olist-shaped records.
func Synthetic(n int) (*Dataset, error) {
	ds := &Dataset{
		Columns: append([]string(nil), syntheticColumns...),
		Records: make([]Record, 0, n),
	}
	for i := 0; i < n; i++ {
		o := order{}
		if err := faker.FakeData(&o); err != nil {
			return nil, fmt.Errorf("fake order %d: %w", i, err)
		}
		ds.Records = append(ds.Records, Record{
			"order_id":                 o.OrderID,
			"customer_id":              o.CustomerID,
			"order_status":             o.OrderStatus,
			"order_purchase_timestamp": o.PurchaseTimestamp,
			"product_category_name":    o.ProductCategory,
			"price":                    o.Price,
			"freight_value":            o.FreightValue,
			"payment_type":             o.PaymentType,
			"payment_installments":     o.PaymentInstallments,
			"review_score":             o.ReviewScore,
			"review_comment_message":   o.ReviewComment,
		})
	}
	return ds, nil
}
