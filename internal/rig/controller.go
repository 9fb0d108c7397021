package rig

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/StampPaper/internal/engine"
	"github.com/piwi3910/StampPaper/internal/model"
)

// Source hands out the next stamp to place.
type Source interface {
	Next() (model.Stamp, string, error)
	Done(path string) error
}

// Controller answers the rig's commands. On every "moved" it takes the next
// stamp from the source, lays it out and replies with the packer status. It
// is the only caller of the packer.
type Controller struct {
	Logger *log.Logger

	// OnSheet, when set, is called for every completed sheet.
	OnSheet func(model.SheetResult) error

	link   *Link
	packer engine.Packer
	source Source
}

func NewController(link *Link, packer engine.Packer, source Source) *Controller {
	return &Controller{link: link, packer: packer, source: source}
}

func (c *Controller) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Run serves rig commands until ctx is cancelled or the link closes.
func (c *Controller) Run(ctx context.Context) error {
	lines, errs := c.link.Listen(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-errs; err != nil {
					return fmt.Errorf("rig link: %w", err)
				}
				return nil
			}
			reply, err := c.Handle(line)
			if err != nil {
				c.logger().Error("command failed", "command", line, "err", err)
			}
			if reply == "" {
				continue
			}
			if err := c.link.Send(string(reply)); err != nil {
				return fmt.Errorf("failed to answer rig: %w", err)
			}
			c.logger().Debug("answered rig", "command", line, "reply", reply)
		}
	}
}

// Handle processes one command line and returns the reply to send, if any.
// A returned error is informational: the reply is still valid.
func (c *Controller) Handle(command string) (model.Status, error) {
	switch command {
	case CommandMoved:
		return c.placeNext()
	case CommandDetect:
		c.logger().Debug("ignoring detect, stamp picking is driven by the rig")
		return "", nil
	default:
		c.logger().Warn("unknown rig command", "command", command)
		return "", nil
	}
}

func (c *Controller) placeNext() (model.Status, error) {
	st, path, err := c.source.Next()
	if errors.Is(err, ErrInboxEmpty) {
		c.logger().Warn("no stamp image waiting")
		return model.StatusRetry, nil
	}
	if err != nil {
		if path != "" {
			if derr := c.source.Done(path); derr != nil {
				c.logger().Error("could not discard unreadable image", "path", path, "err", derr)
			}
		}
		return model.StatusRetry, err
	}

	status := model.StatusRetry
	rejected, err := engine.Feed(c.packer, []model.Stamp{st}, func(_ model.Stamp, res engine.Result) error {
		if res.Status != model.StatusComplete {
			return nil
		}
		status = model.StatusComplete
		if c.OnSheet != nil && res.Sheet != nil {
			return c.OnSheet(*res.Sheet)
		}
		return nil
	})
	if err != nil && status != model.StatusComplete {
		// Nothing was committed; leave the image for the next attempt.
		return model.StatusRetry, err
	}
	if derr := c.source.Done(path); derr != nil {
		err = errors.Join(err, derr)
	}
	if len(rejected) > 0 {
		c.logger().Warn("stamp too large for the paper", "path", path, "stamp", st.ID,
			"size", fmt.Sprintf("%dx%d", st.Width(), st.Height()))
		return model.StatusRetry, err
	}
	c.logger().Info("stamp placed", "path", path, "stamp", st.ID, "status", status)
	return status, err
}
