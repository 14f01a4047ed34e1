package nacos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"

	"verdant/internal/pkg/logger"
)

// Client wraps the nacos naming client with our registration defaults.
type Client struct {
	namingClient naming_client.INamingClient
	namespaceID  string
	groupName    string
}

// NewNacosClient connects to nacos. addrs is "ip1:port1,ip2:port2".
func NewNacosClient(addrs, namespaceID, groupName string) (*Client, error) {
	if groupName == "" {
		groupName = "DEFAULT_GROUP"
	}

	var serverConfigs []constant.ServerConfig
	for _, addr := range strings.Split(addrs, ",") {
		parts := strings.Split(addr, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid nacos address format: %s", addr)
		}
		port, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid port in nacos address: %s", parts[1])
		}
		serverConfigs = append(serverConfigs, *constant.NewServerConfig(parts[0], port))
	}

	clientConfig := *constant.NewClientConfig(
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogDir("/tmp/nacos/log"),
		constant.WithCacheDir("/tmp/nacos/cache"),
		constant.WithLogLevel("warn"),
		constant.WithNamespaceId(namespaceID),
	)

	namingClient, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create nacos naming client: %w", err)
	}

	logger.Logger().Info().Str("addrs", addrs).Msg("connected to nacos")
	return &Client{namingClient: namingClient, namespaceID: namespaceID, groupName: groupName}, nil
}

// RegisterServiceInstance announces this process under serviceName.
func (c *Client) RegisterServiceInstance(serviceName, ip string, port int) error {
	success, err := c.namingClient.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          ip,
		Port:        uint64(port),
		ServiceName: serviceName,
		GroupName:   c.groupName,
		Weight:      1,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
	})
	if err != nil {
		return fmt.Errorf("nacos register failed: %w", err)
	}
	if !success {
		return fmt.Errorf("nacos register rejected for %s", serviceName)
	}
	return nil
}

// DeregisterServiceInstance removes this process from the registry.
func (c *Client) DeregisterServiceInstance(serviceName, ip string, port int) error {
	_, err := c.namingClient.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          ip,
		Port:        uint64(port),
		ServiceName: serviceName,
		GroupName:   c.groupName,
		Ephemeral:   true,
	})
	if err != nil {
		return fmt.Errorf("nacos deregister failed: %w", err)
	}
	return nil
}

// SelectOneHealthyInstance resolves one healthy instance URL for serviceName.
func (c *Client) SelectOneHealthyInstance(serviceName string) (string, error) {
	instance, err := c.namingClient.SelectOneHealthyInstance(vo.SelectOneHealthInstanceParam{
		ServiceName: serviceName,
		GroupName:   c.groupName,
	})
	if err != nil {
		return "", fmt.Errorf("no healthy instance for %s: %w", serviceName, err)
	}
	return fmt.Sprintf("http://%s:%d", instance.Ip, instance.Port), nil
}
