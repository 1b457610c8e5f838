package interrupt

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"tgbulkdl/pkg/logger"
)

// Controller tracks stop requests and whether a download is running
type Controller struct {
	requested   atomic.Bool
	downloading atomic.Bool

	logger logger.Logger
	exit   func(code int)
	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
}

// NewController creates a controller; log may be nil
func NewController(log logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Controller{
		logger: log.WithField("component", "interrupt"),
		exit:   os.Exit,
		notify: signal.Notify,
		stop:   signal.Stop,
	}
}

// Requested reports whether a stop was requested
func (c *Controller) Requested() bool {
	return c.requested.Load()
}

// Request raises the stop flag
func (c *Controller) Request() {
	c.requested.Store(true)
}

// SetDownloading marks whether a download loop is active
func (c *Controller) SetDownloading(active bool) {
	c.downloading.Store(active)
}

// Downloading reports whether a download loop is active
func (c *Controller) Downloading() bool {
	return c.downloading.Load()
}

// Watch subscribes to SIGINT and SIGTERM until ctx is done
func (c *Controller) Watch(ctx context.Context) {
	sigs := make(chan os.Signal, 1)
	c.notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer c.stop(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigs:
				c.handle(sig)
			}
		}
	}()
}

// handle applies the stop policy for one signal
func (c *Controller) handle(sig os.Signal) {
	if !c.Downloading() {
		c.logger.WithField("signal", sig.String()).Info("Interrupted while idle, exiting")
		c.exit(0)
		return
	}

	if c.requested.Swap(true) {
		c.logger.Debug("Stop already requested")
		return
	}
	c.logger.WithField("signal", sig.String()).Warn("Stop requested, finishing the current checkpoint")
}
