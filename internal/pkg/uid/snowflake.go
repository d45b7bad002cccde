package uid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a Snowflake generator.
//
// The node ID is taken from the SNOWFLAKE_NODE_ID environment variable when
// set, otherwise a random node in [0, 1023] is used.
func NewSnowflake() (*Snowflake, error) {
	nodeID, err := resolveNodeID()
	if err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("uid: snowflake node init: %w", err)
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func resolveNodeID() (int64, error) {
	if v := os.Getenv("SNOWFLAKE_NODE_ID"); v != "" {
		nodeID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("uid: invalid SNOWFLAKE_NODE_ID %q: %w", v, err)
		}
		return nodeID, nil
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("uid: random node id: %w", err)
	}

	return int64(binary.BigEndian.Uint64(b[:]) % 1024), nil //nolint:gosec // bounded to [0,1023]
}
