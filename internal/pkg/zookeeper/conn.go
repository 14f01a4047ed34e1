package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"

	"verdant/internal/pkg/logger"
)

// Conn is a thin wrapper over the zk connection so callers don't import the
// driver directly.
type Conn struct {
	*zk.Conn
}

// Connect dials the ensemble with a 10s session timeout.
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second, zk.WithLogInfo(false))
	if err != nil {
		return nil, err
	}
	logger.Logger().Info().Strs("servers", servers).Msg("connected to zookeeper")
	return &Conn{Conn: conn}, nil
}
