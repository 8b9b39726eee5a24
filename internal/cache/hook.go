package cache

import (
	"context"
	"errors"
	"net"

	"github.com/redis/go-redis/v9"
)

// stateHook feeds dial and command outcomes back into the client state.
type stateHook struct {
	client *Client
}

func (h stateHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.client.setState(Disconnected)
			return nil, err
		}
		return conn, nil
	}
}

func (h stateHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if isBackendFailure(err) {
			h.client.setState(Disconnected)
		}
		return err
	}
}

func (h stateHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if isBackendFailure(err) {
			h.client.setState(Disconnected)
		}
		return err
	}
}

// isBackendFailure separates transport failures from replies such as nil or WRONGTYPE.
func isBackendFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var replyErr redis.Error
	return !errors.As(err, &replyErr)
}
