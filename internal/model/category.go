package model

// Category groups products at the top level.
type Category struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Image       string `json:"image,omitempty" mapstructure:"image"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"omitempty,url"`
}

// Cluster is a sub-grouping of products inside a Category, e.g. a regional
// product type. CategoryID must name an existing Category.
type Cluster struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	CategoryID  string `json:"categoryId" mapstructure:"categoryId"`
}

type ClusterInput struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId" validate:"required"`
}
