package model

import (
	"math"
	"time"
)

// Product is a catalogue item. JSON names follow the row service columns.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Cluster     string    `json:"cluster"`
	Price       float64   `json:"price"`
	Material    string    `json:"material"`
	Size        string    `json:"size"`
	MOQ         int       `json:"moq"`
	Available   bool      `json:"available"`
	Images      []string  `json:"images"`
	RetailerID  string    `json:"retailerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductInput is the payload for creating a product. The store assigns
// id and timestamps.
type ProductInput struct {
	Name        string   `json:"name" validate:"required,notblank"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required"`
	Cluster     string   `json:"cluster" validate:"required"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Material    string   `json:"material"`
	Size        string   `json:"size"`
	MOQ         int      `json:"moq" validate:"omitempty,gte=1"`
	Available   bool     `json:"available"`
	Images      []string `json:"images" validate:"max=5,dive,url"`
	RetailerID  string   `json:"retailerId"`
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string   `json:"name" validate:"omitempty,min=1"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" validate:"omitempty,min=1"`
	Cluster     *string   `json:"cluster"`
	Price       *float64  `json:"price" validate:"omitempty,gt=0"`
	Material    *string   `json:"material"`
	Size        *string   `json:"size"`
	MOQ         *int      `json:"moq" validate:"omitempty,gte=1"`
	Available   *bool     `json:"available"`
	Images      *[]string `json:"images" validate:"omitempty,max=5,dive,url"`
	RetailerID  *string   `json:"retailerId"`
}

// IsValidPrice reports whether p is a usable price: finite and non-negative.
func IsValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

// IsValidMOQ reports whether q is a usable minimum order quantity.
func IsValidMOQ(q int) bool {
	return q >= 1
}

// NewProduct builds a product from input. Zero MOQ becomes 1.
func NewProduct(id string, in ProductInput, now time.Time) Product {
	moq := in.MOQ
	if !IsValidMOQ(moq) {
		moq = 1
	}
	return Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Cluster:     in.Cluster,
		Price:       in.Price,
		Material:    in.Material,
		Size:        in.Size,
		MOQ:         moq,
		Available:   in.Available,
		Images:      cloneStrings(in.Images),
		RetailerID:  in.RetailerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Merge returns p with every non-nil patch field applied and UpdatedAt set
// to now, or to CreatedAt if now is earlier.
func (p Product) Merge(patch ProductPatch, now time.Time) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Cluster != nil {
		p.Cluster = *patch.Cluster
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Material != nil {
		p.Material = *patch.Material
	}
	if patch.Size != nil {
		p.Size = *patch.Size
	}
	if patch.MOQ != nil {
		p.MOQ = *patch.MOQ
	}
	if patch.Available != nil {
		p.Available = *patch.Available
	}
	if patch.Images != nil {
		p.Images = cloneStrings(*patch.Images)
	}
	if patch.RetailerID != nil {
		p.RetailerID = *patch.RetailerID
	}
	p.Touch(now)
	return p
}

// Touch refreshes UpdatedAt while keeping UpdatedAt >= CreatedAt.
func (p *Product) Touch(now time.Time) {
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.UpdatedAt = now
}

// Clone returns a deep copy; Images is the only shared reference.
func (p Product) Clone() Product {
	p.Images = cloneStrings(p.Images)
	return p
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
