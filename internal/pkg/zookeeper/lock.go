package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/verdant/locks"

// DistributedLock is an ephemeral-sequential zk lock. The reconciler holds
// one so a single instance sweeps stale sub-orders at a time.
type DistributedLock struct {
	conn     *Conn
	path     string
	lockNode string
}

// NewDistributedLock prepares the lock path for resourceID, creating parents
// as needed.
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	path := ""
	for _, part := range strings.Split(strings.TrimPrefix(lockRoot+"/"+resourceID, "/"), "/") {
		path += "/" + part
		_, err := conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return nil, fmt.Errorf("failed to create lock node %s: %w", path, err)
		}
	}
	return &DistributedLock{conn: conn, path: lockRoot + "/" + resourceID}, nil
}

// Lock blocks until the lock is acquired or the wait times out. The herd is
// avoided by watching only the immediate predecessor node.
func (l *DistributedLock) Lock() error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to list lock children: %w", err)
		}
		sort.Strings(children)

		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNodeName == children[0] {
			return nil
		}

		prevNodeIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevNodeIndex = i - 1
				break
			}
		}
		if prevNodeIndex < 0 {
			return errors.New("own lock node missing from children")
		}
		prevNodePath := l.path + "/" + children[prevNodeIndex]

		_, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous node: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(30 * time.Second):
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock releases the lock by deleting our node.
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
