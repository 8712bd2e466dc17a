package catalogue

import (
	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out entity ids.
type IDGenerator interface {
	NextID() string
}

// SnowflakeIDs issues time-ordered snowflake ids. Processes sharing a row
// backend need distinct node numbers.
type SnowflakeIDs struct {
	node *snowflake.Node
}

func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &SnowflakeIDs{node: n}, nil
}

// MustSnowflakeIDs is NewSnowflakeIDs for node numbers known to be valid.
func MustSnowflakeIDs(node int64) *SnowflakeIDs {
	g, err := NewSnowflakeIDs(node)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *SnowflakeIDs) NextID() string {
	return g.node.Generate().String()
}
