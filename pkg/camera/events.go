package camera

import (
	"math"
	"time"

	"github.com/Qefaraki/treescape/pkg/geom"
)

// Event is a discrete gesture input. Events are plain values so a session
// can be recorded and replayed through a fresh controller.
type Event interface{ eventTime() time.Time }

// TouchDown begins a touch sequence at a screen point.
type TouchDown struct {
	X, Y float64
	At   time.Time
}

// TouchUp ends a touch sequence. The controller resolves it to a tap,
// long-press, or nothing based on movement and duration.
type TouchUp struct {
	At time.Time
}

// PanUpdate applies a raw drag delta in screen points.
type PanUpdate struct {
	DX, DY float64
	At     time.Time
}

// PanEnd releases a drag with the gesture recognizer's velocity estimate
// in px/s.
type PanEnd struct {
	VX, VY float64
	At     time.Time
}

// PinchStart begins a two-finger gesture at a focal point.
type PinchStart struct {
	FocalX, FocalY float64
	At             time.Time
}

// PinchUpdate applies an incremental scale factor anchored at the focal
// point: the world point under the fingers stays fixed on screen.
type PinchUpdate struct {
	ScaleDelta     float64
	FocalX, FocalY float64
	At             time.Time
}

// PinchEnd releases the pinch. An out-of-range scale springs back.
type PinchEnd struct {
	At time.Time
}

func (e TouchDown) eventTime() time.Time   { return e.At }
func (e TouchUp) eventTime() time.Time     { return e.At }
func (e PanUpdate) eventTime() time.Time   { return e.At }
func (e PanEnd) eventTime() time.Time      { return e.At }
func (e PinchStart) eventTime() time.Time  { return e.At }
func (e PinchUpdate) eventTime() time.Time { return e.At }
func (e PinchEnd) eventTime() time.Time    { return e.At }

// TapKind classifies a resolved touch release.
type TapKind int

const (
	// TapNone means the touch was a drag or too slow to be a tap.
	TapNone TapKind = iota
	// TapShort is a quick stationary touch.
	TapShort
	// TapLong is a stationary hold past the long-press duration.
	TapLong
)

// Tap is the resolution of a touch sequence.
type Tap struct {
	Kind TapKind
	At   geom.Point // screen point of the initial touch
}

// Apply consumes one gesture event. For TouchUp events the returned Tap
// carries the resolution; all other events return a zero Tap.
func (c *Controller) Apply(ev Event) Tap {
	switch e := ev.(type) {
	case TouchDown:
		c.onTouchDown(e)
	case TouchUp:
		return c.onTouchUp(e)
	case PanUpdate:
		c.OnPanUpdate(e.DX, e.DY)
	case PanEnd:
		c.OnPanEnd(e.VX, e.VY, e.At)
	case PinchStart:
		c.onPinchStart(e)
	case PinchUpdate:
		c.OnPinchUpdate(e.ScaleDelta, e.FocalX, e.FocalY)
	case PinchEnd:
		c.OnPinchEnd(e.At)
	}
	return Tap{}
}

func (c *Controller) onTouchDown(e TouchDown) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A touch interrupts any coast immediately: the finger owns the view.
	c.coasting = false
	c.phase = phaseTouch
	c.touchStart = geom.Point{X: e.X, Y: e.Y}
	c.touchAt = e.At
	c.travel = 0
	c.lastGood = c.cam
}

func (c *Controller) onTouchUp(e TouchUp) Tap {
	c.mu.Lock()
	defer c.mu.Unlock()

	phase := c.phase
	c.phase = phaseIdle
	if phase != phaseTouch {
		return Tap{}
	}

	held := e.At.Sub(c.touchAt)
	if c.travel > c.cfg.TapMaxMovement {
		return Tap{}
	}
	if held >= c.cfg.LongPressDuration {
		return Tap{Kind: TapLong, At: c.touchStart}
	}
	if held <= c.cfg.TapMaxDuration {
		return Tap{Kind: TapShort, At: c.touchStart}
	}
	return Tap{} // stationary but in the dead zone between tap and hold
}

// OnPanUpdate applies a drag delta directly to the camera.
func (c *Controller) OnPanUpdate(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == phaseTouch {
		c.travel += absHypot(dx, dy)
		if c.travel > c.cfg.TapMaxMovement {
			c.phase = phasePan
		}
	}
	c.coasting = false
	c.cam.TX += dx
	c.cam.TY += dy
}

// OnPanEnd releases the drag and, if the velocity is meaningful, starts a
// momentum coast. Velocity is clamped to MaxVelocity before decay begins;
// below MinVelocity no coast starts at all.
func (c *Controller) OnPanEnd(vx, vy float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.phase = phaseIdle
	if c.springing {
		return // spring owns the camera; residual drift would fight it
	}

	speed := absHypot(vx, vy)
	if speed < c.cfg.MinVelocity {
		return
	}
	if speed > c.cfg.MaxVelocity {
		k := c.cfg.MaxVelocity / speed
		vx *= k
		vy *= k
	}

	c.coasting = true
	c.coastFrom = c.cam
	c.coastV = geom.Point{X: vx, Y: vy}
	c.coastAt = at
}

func (c *Controller) onPinchStart(e PinchStart) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.coasting = false
	c.springing = false
	c.phase = phasePinch
	c.lastGood = c.cam
	c.springFocal = geom.Point{X: e.FocalX, Y: e.FocalY}
}

// OnPinchUpdate rescales anchored at the focal point. Outside the
// configured range the scale advances with square-root resistance, so the
// gesture feels increasingly stiff rather than stopping dead.
func (c *Controller) OnPinchUpdate(scaleDelta, focalX, focalY float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != phasePinch {
		// Pinch update without a start: recover by opening one here.
		c.phase = phasePinch
		c.lastGood = c.cam
	}
	c.springFocal = geom.Point{X: focalX, Y: focalY}

	target := c.cam.Scale * scaleDelta
	switch {
	case target > c.cfg.MaxScale:
		over := target / c.cfg.MaxScale
		target = c.cfg.MaxScale * math.Sqrt(over)
	case target < c.cfg.MinScale:
		under := c.cfg.MinScale / target
		target = c.cfg.MinScale / math.Sqrt(under)
	}
	c.rescaleAnchored(target, c.springFocal)
}

// OnPinchEnd releases the pinch. If the gesture left the scale outside
// [MinScale, MaxScale] a spring-back starts toward the nearer bound; any
// pan momentum is cancelled so the spring and a coast never fight.
func (c *Controller) OnPinchEnd(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != phasePinch {
		// End without a matching start: restore the last good camera.
		c.cam = c.lastGood
		c.phase = phaseIdle
		return
	}
	c.phase = phaseIdle

	target := c.cam.Scale
	if target > c.cfg.MaxScale {
		target = c.cfg.MaxScale
	} else if target < c.cfg.MinScale {
		target = c.cfg.MinScale
	}
	if target == c.cam.Scale {
		return
	}

	c.coasting = false
	c.springing = true
	c.springFrom = c.cam.Scale
	c.springTarget = target
	c.springAt = at
}

func absHypot(x, y float64) float64 { return math.Hypot(x, y) }
