// Package camera owns the view transform and all gesture physics.
//
// The controller is the single writer of camera state in the whole engine.
// Everything else (culling, rendering, hit-testing, the viewport loader)
// reads through [Controller.Snapshot], which returns the complete camera
// value committed at the last frame boundary - fields can never tear
// because readers only ever see whole snapshots.
//
// Gesture input arrives as discrete [Event] values consumed by
// [Controller.Apply]. Recording the event stream and replaying it through
// a fresh controller reproduces the exact same camera trajectory, which is
// how the physics tests work.
//
// Momentum and spring animations are time-driven: displacement is computed
// in closed form from elapsed wall time, so the visual behavior is
// identical at 30, 60, or 120 frames per second.
package camera

import (
	"math"
	"sync"
	"time"

	"github.com/Qefaraki/treescape/pkg/geom"
)

// Camera is the view transform: world * Scale + (TX, TY) = screen.
type Camera struct {
	TX    float64
	TY    float64
	Scale float64
}

// Transform returns the camera as a geometry transform.
func (c Camera) Transform() geom.Transform {
	return geom.Transform{TX: c.TX, TY: c.TY, Scale: c.Scale}
}

// Config holds the gesture physics tunables.
type Config struct {
	// MinScale and MaxScale bound the zoom range. Exceeding the range
	// mid-gesture is allowed (with resistance); release springs back.
	MinScale float64
	MaxScale float64

	// DecayLambda is the per-second momentum decay base:
	// v(t) = v0 * DecayLambda^t. Smaller settles faster.
	DecayLambda float64
	// MaxVelocity clamps fling velocity magnitude in px/s.
	MaxVelocity float64
	// MinVelocity is the floor below which a release produces no
	// momentum at all, so touch noise cannot cause micro-coasts.
	MinVelocity float64
	// StopVelocity ends an active coast once decay falls below it.
	StopVelocity float64

	// SpringHalfLife controls how fast the out-of-range spring-back
	// converges; the overshoot halves every half-life.
	SpringHalfLife time.Duration

	// TapMaxMovement and TapMaxDuration bound what counts as a tap.
	TapMaxMovement float64
	TapMaxDuration time.Duration
	// LongPressDuration is the minimum stationary hold for a long-press.
	LongPressDuration time.Duration
}

// DefaultConfig returns physics tuned for phone-class touch input.
// With DecayLambda 0.05 a maximum-velocity fling settles in about 1.5s.
func DefaultConfig() Config {
	return Config{
		MinScale:          0.1,
		MaxScale:          3.0,
		DecayLambda:       0.05,
		MaxVelocity:       2000,
		MinVelocity:       50,
		StopVelocity:      10,
		SpringHalfLife:    60 * time.Millisecond,
		TapMaxMovement:    10,
		TapMaxDuration:    250 * time.Millisecond,
		LongPressDuration: 450 * time.Millisecond,
	}
}

// MomentumDisplacement returns the closed-form coast displacement after
// elapsed time t for initial velocity v0 under exponential decay:
//
//	d(t) = v0 * (lambda^t - 1) / ln(lambda)
//
// It is exported so tests and external chrome can verify frame-rate
// independence against the same formula the controller integrates.
func MomentumDisplacement(v0, lambda float64, t time.Duration) float64 {
	if v0 == 0 || lambda <= 0 || lambda >= 1 {
		return 0
	}
	sec := t.Seconds()
	return v0 * (math.Pow(lambda, sec) - 1) / math.Log(lambda)
}

// gesturePhase tracks which gesture, if any, is in flight.
type gesturePhase int

const (
	phaseIdle gesturePhase = iota
	phaseTouch
	phasePan
	phasePinch
)

// Controller is the exclusive owner of camera state.
// All methods are safe for concurrent use; reads go through Snapshot.
type Controller struct {
	mu  sync.Mutex
	cfg Config

	cam      Camera // working state, mutated by gestures and Step
	snapshot Camera // committed at the last frame boundary
	lastGood Camera // restore point for gesture desync

	phase      gesturePhase
	touchStart geom.Point
	touchAt    time.Time
	travel     float64 // cumulative finger movement this gesture

	// momentum coast, integrated in closed form from its start.
	coasting  bool
	coastFrom Camera
	coastV    geom.Point
	coastAt   time.Time

	// spring-back toward an in-range scale.
	springing    bool
	springFocal  geom.Point
	springTarget float64
	springFrom   float64
	springAt     time.Time
}

// NewController creates a controller at the given initial camera.
// Zero-valued config fields fall back to defaults.
func NewController(cfg Config, initial Camera) *Controller {
	def := DefaultConfig()
	if cfg.MinScale <= 0 {
		cfg.MinScale = def.MinScale
	}
	if cfg.MaxScale <= 0 {
		cfg.MaxScale = def.MaxScale
	}
	if cfg.DecayLambda <= 0 || cfg.DecayLambda >= 1 {
		cfg.DecayLambda = def.DecayLambda
	}
	if cfg.MaxVelocity <= 0 {
		cfg.MaxVelocity = def.MaxVelocity
	}
	if cfg.MinVelocity <= 0 {
		cfg.MinVelocity = def.MinVelocity
	}
	if cfg.StopVelocity <= 0 {
		cfg.StopVelocity = def.StopVelocity
	}
	if cfg.SpringHalfLife <= 0 {
		cfg.SpringHalfLife = def.SpringHalfLife
	}
	if cfg.TapMaxMovement <= 0 {
		cfg.TapMaxMovement = def.TapMaxMovement
	}
	if cfg.TapMaxDuration <= 0 {
		cfg.TapMaxDuration = def.TapMaxDuration
	}
	if cfg.LongPressDuration <= 0 {
		cfg.LongPressDuration = def.LongPressDuration
	}
	if initial.Scale <= 0 {
		initial.Scale = 1
	}
	return &Controller{
		cfg:      cfg,
		cam:      initial,
		snapshot: initial,
		lastGood: initial,
	}
}

// Config returns the active configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Snapshot returns the camera committed at the last frame boundary.
// Callers hold the returned value for the whole frame so every consumer
// of this frame agrees on the transform.
func (c *Controller) Snapshot() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Animating reports whether a coast or spring is still running.
func (c *Controller) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coasting || c.springing
}

// Velocity returns the viewport's travel velocity in world points per
// second: how fast the visible world rect is moving while a momentum
// coast is running, zero otherwise. Loaders use it to expand their fetch
// window ahead of travel.
//
// The visible rect is the inverse view transform of the screen, so it
// travels opposite the translation and its speed is divided by the scale.
func (c *Controller) Velocity(now time.Time) geom.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.coasting {
		return geom.Point{}
	}
	decay := math.Pow(c.cfg.DecayLambda, now.Sub(c.coastAt).Seconds())
	return geom.Point{
		X: -c.coastV.X * decay / c.cam.Scale,
		Y: -c.coastV.Y * decay / c.cam.Scale,
	}
}

// Step advances time-driven animation to now and commits the working
// camera as the new frame snapshot. Call once per frame, before reading
// Snapshot for that frame.
func (c *Controller) Step(now time.Time) Camera {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.coasting {
		c.stepCoast(now)
	}
	if c.springing {
		c.stepSpring(now)
	}

	c.snapshot = c.cam
	if c.phase == phaseIdle && !c.coasting && !c.springing {
		c.lastGood = c.cam
	}
	return c.snapshot
}

func (c *Controller) stepCoast(now time.Time) {
	t := now.Sub(c.coastAt)
	c.cam.TX = c.coastFrom.TX + MomentumDisplacement(c.coastV.X, c.cfg.DecayLambda, t)
	c.cam.TY = c.coastFrom.TY + MomentumDisplacement(c.coastV.Y, c.cfg.DecayLambda, t)

	decay := math.Pow(c.cfg.DecayLambda, t.Seconds())
	speed := math.Hypot(c.coastV.X, c.coastV.Y) * decay
	if speed < c.cfg.StopVelocity {
		c.coasting = false
	}
}

func (c *Controller) stepSpring(now time.Time) {
	t := now.Sub(c.springAt).Seconds()
	half := c.cfg.SpringHalfLife.Seconds()
	k := math.Pow(0.5, t/half)

	scale := c.springTarget + (c.springFrom-c.springTarget)*k
	c.rescaleAnchored(scale, c.springFocal)

	if math.Abs(scale-c.springTarget)/c.springTarget < 0.001 {
		c.rescaleAnchored(c.springTarget, c.springFocal)
		c.springing = false
	}
}

// rescaleAnchored sets the scale while keeping the world point under the
// screen-space focal point fixed.
func (c *Controller) rescaleAnchored(newScale float64, focal geom.Point) {
	world := c.cam.Transform().Invert(focal)
	c.cam.Scale = newScale
	c.cam.TX = focal.X - world.X*newScale
	c.cam.TY = focal.Y - world.Y*newScale
}
