//go:build !windows

package screenshot

import "context"

func (t *Taker) TakeScreenshot(_ context.Context) (string, error) {
	return "", ErrUnavailable
}
