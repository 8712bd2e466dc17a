package rows

import (
	"strings"

	"go-catalogue-ws/internal/model"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// ToProduct decodes a Products row. Unparseable numbers fall back to
// price 0 and moq 1; missing fields stay at their zero value.
func ToProduct(r Row) model.Product {
	p := model.Product{
		ID:          r.str("id"),
		Name:        r.str("name"),
		Description: r.str("description"),
		Category:    r.str("category"),
		Cluster:     r.str("cluster"),
		Price:       parsePrice(r["price"]),
		Material:    r.str("material"),
		Size:        r.str("size"),
		MOQ:         parseMOQ(r["moq"]),
		Available:   parseBool(r["available"]),
		Images:      splitList(r["images"]),
		RetailerID:  r.str("retailerId"),
		CreatedAt:   parseTime(r["createdAt"]),
		UpdatedAt:   parseTime(r["updatedAt"]),
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		p.UpdatedAt = p.CreatedAt
	}
	return p
}

func ToProducts(rs []Row) []model.Product {
	out := make([]model.Product, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToProduct(r))
	}
	return out
}

// FromProduct encodes p as a Products row.
func FromProduct(p model.Product) Row {
	return Row{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"cluster":     p.Cluster,
		"price":       cast.ToString(p.Price),
		"material":    p.Material,
		"size":        p.Size,
		"moq":         cast.ToString(p.MOQ),
		"available":   cast.ToString(p.Available),
		"images":      strings.Join(p.Images, ","),
		"retailerId":  p.RetailerID,
		"createdAt":   formatTime(p.CreatedAt),
		"updatedAt":   formatTime(p.UpdatedAt),
	}
}

// decodeStrings fills a struct with mapstructure tags from a row. Rows
// only carry strings so decoding cannot fail on types; any other error
// leaves out at its zero value.
func decodeStrings(r Row, out interface{}) {
	trimmed := make(map[string]string, len(r))
	for k, v := range r {
		trimmed[k] = strings.TrimSpace(v)
	}
	if err := mapstructure.Decode(trimmed, out); err != nil {
		return
	}
}

func ToCategory(r Row) model.Category {
	var c model.Category
	decodeStrings(r, &c)
	return c
}

func ToCategories(rs []Row) []model.Category {
	out := make([]model.Category, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToCategory(r))
	}
	return out
}

func FromCategory(c model.Category) Row {
	return Row{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"image":       c.Image,
	}
}

func ToCluster(r Row) model.Cluster {
	var c model.Cluster
	decodeStrings(r, &c)
	return c
}

func ToClusters(rs []Row) []model.Cluster {
	out := make([]model.Cluster, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToCluster(r))
	}
	return out
}

func FromCluster(c model.Cluster) Row {
	return Row{
		"id":          c.ID,
		"name":        c.Name,
		"categoryId":  c.CategoryID,
		"description": c.Description,
	}
}

type directoryRow struct {
	UID       string `mapstructure:"uid"`
	Email     string `mapstructure:"email"`
	Name      string `mapstructure:"name"`
	Role      string `mapstructure:"role"`
	CreatedAt string `mapstructure:"createdAt"`
}

// ToDirectoryUser decodes a Users row. An unknown role string becomes the
// default role.
func ToDirectoryUser(r Row) model.DirectoryUser {
	var d directoryRow
	decodeStrings(r, &d)
	return model.DirectoryUser{
		UID:       d.UID,
		Email:     d.Email,
		Name:      d.Name,
		Role:      model.ParseRole(d.Role),
		CreatedAt: parseTime(d.CreatedAt),
	}
}

func ToDirectoryUsers(rs []Row) []model.DirectoryUser {
	out := make([]model.DirectoryUser, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToDirectoryUser(r))
	}
	return out
}

func FromDirectoryUser(u model.DirectoryUser) Row {
	return Row{
		"uid":       u.UID,
		"email":     u.Email,
		"name":      u.Name,
		"role":      string(u.Role),
		"createdAt": formatTime(u.CreatedAt),
	}
}
