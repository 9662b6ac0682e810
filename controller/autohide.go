package controller

import "time"

// PointerMoved shows the controls. In fullscreen they hide again after HideDelay.
func (c *Controller) PointerMoved() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	changed := !c.session.ControlsVisible
	c.session.ControlsVisible = true
	if c.session.Fullscreen {
		c.armHide(c.opts.HideDelay)
	}
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

// PointerLeft hides the fullscreen controls after the shorter LeaveDelay.
func (c *Controller) PointerLeft() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted && c.session.Fullscreen {
		c.armHide(c.opts.LeaveDelay)
	}
}

// setFullscreen switches the layout. Controls are visible on every switch and
// only ever hide in fullscreen. Callers hold mu.
func (c *Controller) setFullscreen(on bool) {
	c.session.Fullscreen = on
	c.session.ControlsVisible = true

	if on {
		c.armHide(c.opts.HideDelay)
	} else {
		c.stopHide()
	}
}

// armHide replaces the pending hide with one firing after d. Callers hold mu.
func (c *Controller) armHide(d time.Duration) {
	c.stopHide()
	gen := c.hideGen

	c.hide = time.AfterFunc(d, func() {
		c.mu.Lock()
		if gen != c.hideGen || !c.session.Fullscreen || !c.session.ControlsVisible {
			c.mu.Unlock()
			return
		}
		c.session.ControlsVisible = false
		c.mu.Unlock()
		c.notify()
	})
}

// stopHide cancels the pending hide, including one whose timer already fired. Callers hold mu.
func (c *Controller) stopHide() {
	if c.hide != nil {
		c.hide.Stop()
		c.hide = nil
	}
	c.hideGen++
}
