package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.As(err, &netErr)
}
