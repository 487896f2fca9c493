// Package transform maps platform-native payloads into the canonical schema.
// Every function here is pure: no I/O, no clock reads, no logging.
package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/shopspring/decimal"

	"brandwisp-store-sync/internal/domain"
)

// SplitTags splits a comma-delimited tag string, trims each tag and drops empty ones.
// Source order is kept and duplicates are not removed.
func SplitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Product converts a Shopify product into the canonical product of storeID.
// A variant without a price gets price 0; UnpricedVariants counts them so callers can report it.
func Product(p *goshopify.Product, storeID string) (*domain.Product, error) {
	if p == nil {
		return nil, fmt.Errorf("product payload is empty")
	}
	if p.Id == 0 {
		return nil, fmt.Errorf("product payload has no id")
	}

	images := make([]domain.ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, domain.ProductImage{
			ID:       formatID(img.Id),
			Src:      img.Src,
			Alt:      img.Alt,
			Width:    img.Width,
			Height:   img.Height,
			Position: img.Position,
		})
	}

	variants := make([]domain.ProductVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, domain.ProductVariant{
			ID:                formatID(v.Id),
			Title:             v.Title,
			Price:             floatOrZero(v.Price),
			CompareAtPrice:    optionalFloat(v.CompareAtPrice),
			SKU:               v.Sku,
			InventoryQuantity: v.InventoryQuantity,
		})
	}

	return &domain.Product{
		ID:          formatID(p.Id),
		StoreID:     storeID,
		Title:       p.Title,
		Description: p.BodyHTML,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Status:      string(p.Status),
		Handle:      p.Handle,
		Tags:        SplitTags(p.Tags),
		Images:      images,
		Variants:    variants,
		CreatedAt:   timeValue(p.CreatedAt),
		UpdatedAt:   timeValue(p.UpdatedAt),
	}, nil
}

// UnpricedVariants returns how many variants of p carry no price
func UnpricedVariants(p *goshopify.Product) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, v := range p.Variants {
		if v.Price == nil {
			n++
		}
	}
	return n
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// optionalID maps Shopify's zero id (null in the payload) to nil
func optionalID(id uint64) *string {
	if id == 0 {
		return nil
	}
	s := formatID(id)
	return &s
}

func floatOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func optionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// nonEmpty returns nil for an empty string
func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
