package camera

import (
	"math"
	"testing"
	"time"

	"github.com/Qefaraki/treescape/pkg/geom"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newCtl() *Controller {
	return NewController(Config{}, Camera{Scale: 1})
}

func TestPanAppliesDirectly(t *testing.T) {
	c := newCtl()
	c.OnPanUpdate(10, -20)
	c.OnPanUpdate(5, 5)
	cam := c.Step(t0)
	if cam.TX != 15 || cam.TY != -15 {
		t.Errorf("pan deltas should accumulate: %+v", cam)
	}
}

func TestMomentumClampedToMax(t *testing.T) {
	// Scenario: release at 2500 px/s clamps to the 2000 px/s maximum
	// before decay begins.
	c := newCtl()
	c.OnPanEnd(2500, 0, t0)

	// Displacement after 100ms must match the closed form at 2000 px/s.
	cam := c.Step(t0.Add(100 * time.Millisecond))
	want := MomentumDisplacement(2000, c.Config().DecayLambda, 100*time.Millisecond)
	if math.Abs(cam.TX-want) > 1e-6 {
		t.Errorf("clamped coast displacement %.4f, want %.4f", cam.TX, want)
	}
}

func TestMomentumBelowFloorIgnored(t *testing.T) {
	c := newCtl()
	c.OnPanEnd(30, 20, t0) // below MinVelocity 50

	cam := c.Step(t0.Add(500 * time.Millisecond))
	if cam.TX != 0 || cam.TY != 0 {
		t.Errorf("sub-threshold release should not coast: %+v", cam)
	}
	if c.Animating() {
		t.Error("no animation should be active")
	}
}

func TestMomentumFrameRateIndependent(t *testing.T) {
	// Stepping at 30fps and at 120fps must land on the same displacement
	// at the same wall time: decay is time-based, not frame-count-based.
	mk := func(stepMs int) Camera {
		c := newCtl()
		c.OnPanEnd(1000, 0, t0)
		var cam Camera
		for ms := stepMs; ms <= 600; ms += stepMs {
			cam = c.Step(t0.Add(time.Duration(ms) * time.Millisecond))
		}
		return cam
	}

	slow := mk(33)  // ~30fps, lands on 594ms... close enough to compare at 600
	fast := mk(8)   // 125fps
	exact := mk(600) // a single giant step

	// Compare all at their final common timestamp by using divisors of 600.
	a := mk(100)
	b := mk(20)
	if math.Abs(a.TX-b.TX) > 1e-6 || math.Abs(a.TX-exact.TX) > 1e-6 {
		t.Errorf("frame rate changed the trajectory: %.6f vs %.6f vs %.6f", a.TX, b.TX, exact.TX)
	}
	_ = slow
	_ = fast
}

func TestMomentumMatchesClosedForm(t *testing.T) {
	c := newCtl()
	v0 := 1200.0
	c.OnPanEnd(v0, 0, t0)

	for _, ms := range []int{50, 200, 500, 900} {
		cam := c.Step(t0.Add(time.Duration(ms) * time.Millisecond))
		want := MomentumDisplacement(v0, c.Config().DecayLambda, time.Duration(ms)*time.Millisecond)
		if math.Abs(cam.TX-want) > 1e-6 {
			t.Errorf("t=%dms: displacement %.6f, want %.6f", ms, cam.TX, want)
		}
	}
}

func TestCoastSettles(t *testing.T) {
	c := newCtl()
	c.OnPanEnd(2000, 0, t0)

	c.Step(t0.Add(2 * time.Second))
	if c.Animating() {
		t.Error("max-velocity fling should settle within 2 seconds")
	}
}

func TestVelocityTracksViewportTravel(t *testing.T) {
	// A rightward fling translates content toward +X, which moves the
	// visible world rect toward -X; at scale 2 one screen point is half
	// a world point.
	c := NewController(Config{}, Camera{Scale: 2})
	c.OnPanEnd(800, 0, t0)

	v := c.Velocity(t0)
	if v.X != -400 || v.Y != 0 {
		t.Errorf("travel velocity = %+v, want {-400 0}", v)
	}

	// Decay applies on top of the conversion.
	lambda := c.Config().DecayLambda
	later := t0.Add(250 * time.Millisecond)
	want := -800 * math.Pow(lambda, 0.25) / 2
	if got := c.Velocity(later).X; math.Abs(got-want) > 1e-9 {
		t.Errorf("decayed travel velocity %.6f, want %.6f", got, want)
	}

	// A touch ends the coast; no travel is reported.
	c.Apply(TouchDown{X: 0, Y: 0, At: later})
	if v := c.Velocity(later); v.X != 0 || v.Y != 0 {
		t.Errorf("interrupted coast should report zero velocity, got %+v", v)
	}
}

func TestTouchInterruptsCoast(t *testing.T) {
	c := newCtl()
	c.OnPanEnd(2000, 0, t0)
	c.Step(t0.Add(50 * time.Millisecond))

	c.Apply(TouchDown{X: 100, Y: 100, At: t0.Add(60 * time.Millisecond)})
	before := c.Step(t0.Add(70 * time.Millisecond))
	after := c.Step(t0.Add(500 * time.Millisecond))
	if before.TX != after.TX {
		t.Error("touch down should stop the coast dead")
	}
}

func TestFocalAnchoredZoom(t *testing.T) {
	c := newCtl()
	c.OnPanUpdate(50, 80) // arbitrary starting transform
	c.Step(t0)

	focal := geom.Point{X: 200, Y: 400}
	camBefore := c.Snapshot()
	worldUnderFinger := camBefore.Transform().Invert(focal)

	c.Apply(PinchStart{FocalX: focal.X, FocalY: focal.Y, At: t0})
	c.Apply(PinchUpdate{ScaleDelta: 1.5, FocalX: focal.X, FocalY: focal.Y, At: t0})
	camAfter := c.Step(t0.Add(16 * time.Millisecond))

	back := camAfter.Transform().Apply(worldUnderFinger)
	if math.Abs(back.X-focal.X) > 1e-9 || math.Abs(back.Y-focal.Y) > 1e-9 {
		t.Errorf("world point under fingers moved: %+v, want %+v", back, focal)
	}
	if math.Abs(camAfter.Scale-1.5) > 1e-9 {
		t.Errorf("scale should be 1.5, got %f", camAfter.Scale)
	}
}

func TestZoomSpringBack(t *testing.T) {
	c := newCtl()
	cfg := c.Config()

	c.Apply(PinchStart{FocalX: 100, FocalY: 100, At: t0})
	// Push far past MaxScale; resistance keeps it above the bound but
	// below the raw product.
	c.Apply(PinchUpdate{ScaleDelta: 8, FocalX: 100, FocalY: 100, At: t0})
	mid := c.Step(t0)
	if mid.Scale <= cfg.MaxScale {
		t.Fatalf("overshoot should be allowed during the gesture, got %f", mid.Scale)
	}
	if mid.Scale >= 8 {
		t.Fatalf("resistance should damp the overshoot, got %f", mid.Scale)
	}

	c.Apply(PinchEnd{At: t0})
	if !c.Animating() {
		t.Fatal("release out of range should start a spring")
	}

	cam := c.Step(t0.Add(2 * time.Second))
	if math.Abs(cam.Scale-cfg.MaxScale) > 1e-3 {
		t.Errorf("spring should settle at MaxScale %.2f, got %f", cfg.MaxScale, cam.Scale)
	}
	if c.Animating() {
		t.Error("spring should have settled")
	}
}

func TestSpringCancelsMomentum(t *testing.T) {
	c := newCtl()

	c.Apply(PinchStart{FocalX: 0, FocalY: 0, At: t0})
	c.Apply(PinchUpdate{ScaleDelta: 10, FocalX: 0, FocalY: 0, At: t0})
	c.Apply(PinchEnd{At: t0})

	// A pan release while the spring runs must not start a coast.
	c.OnPanEnd(2000, 0, t0.Add(10*time.Millisecond))

	a := c.Step(t0.Add(2 * time.Second))
	b := c.Step(t0.Add(3 * time.Second))
	if a.TX != b.TX || a.TY != b.TY {
		t.Error("camera should be at rest after the spring settles; momentum leaked in")
	}
}

func TestInRangePinchEndNoSpring(t *testing.T) {
	c := newCtl()
	c.Apply(PinchStart{FocalX: 0, FocalY: 0, At: t0})
	c.Apply(PinchUpdate{ScaleDelta: 1.2, FocalX: 0, FocalY: 0, At: t0})
	c.Apply(PinchEnd{At: t0})
	if c.Animating() {
		t.Error("in-range release should not spring")
	}
}

func TestPinchEndWithoutStartResets(t *testing.T) {
	c := newCtl()
	c.OnPanUpdate(40, 40)
	good := c.Step(t0)

	// Desync: an end arrives with no start. The camera resets to the last
	// known-good snapshot instead of corrupting state.
	c.Apply(PinchEnd{At: t0})
	cam := c.Step(t0.Add(16 * time.Millisecond))
	if cam.Scale != good.Scale {
		t.Errorf("desynced pinch end should restore camera, got %+v", cam)
	}
}

func TestTapResolution(t *testing.T) {
	c := newCtl()

	// Quick stationary touch: tap.
	c.Apply(TouchDown{X: 50, Y: 60, At: t0})
	tap := c.Apply(TouchUp{At: t0.Add(100 * time.Millisecond)})
	if tap.Kind != TapShort {
		t.Errorf("expected TapShort, got %v", tap.Kind)
	}
	if tap.At.X != 50 || tap.At.Y != 60 {
		t.Errorf("tap point should be the touch origin: %+v", tap.At)
	}
}

func TestDraggedTouchIsNotTap(t *testing.T) {
	c := newCtl()
	c.Apply(TouchDown{X: 50, Y: 60, At: t0})
	c.Apply(PanUpdate{DX: 30, DY: 0, At: t0.Add(50 * time.Millisecond)})
	tap := c.Apply(TouchUp{At: t0.Add(100 * time.Millisecond)})
	if tap.Kind != TapNone {
		t.Errorf("moved touch should abort the tap, got %v", tap.Kind)
	}
}

func TestLongPress(t *testing.T) {
	c := newCtl()
	c.Apply(TouchDown{X: 10, Y: 10, At: t0})
	tap := c.Apply(TouchUp{At: t0.Add(600 * time.Millisecond)})
	if tap.Kind != TapLong {
		t.Errorf("stationary hold should resolve long-press, got %v", tap.Kind)
	}

	// Small jitter under the movement threshold still counts.
	c.Apply(TouchDown{X: 10, Y: 10, At: t0})
	c.Apply(PanUpdate{DX: 2, DY: 1, At: t0.Add(200 * time.Millisecond)})
	tap = c.Apply(TouchUp{At: t0.Add(600 * time.Millisecond)})
	if tap.Kind != TapLong {
		t.Errorf("sub-threshold jitter should not abort long-press, got %v", tap.Kind)
	}
}

func TestReplayDeterminism(t *testing.T) {
	events := []Event{
		TouchDown{X: 10, Y: 10, At: t0},
		PanUpdate{DX: 120, DY: -40, At: t0.Add(30 * time.Millisecond)},
		PanEnd{VX: 900, VY: -300, At: t0.Add(60 * time.Millisecond)},
		PinchStart{FocalX: 200, FocalY: 300, At: t0.Add(400 * time.Millisecond)},
		PinchUpdate{ScaleDelta: 1.8, FocalX: 200, FocalY: 300, At: t0.Add(450 * time.Millisecond)},
		PinchEnd{At: t0.Add(500 * time.Millisecond)},
	}

	run := func() Camera {
		c := newCtl()
		for _, ev := range events {
			c.Apply(ev)
			c.Step(ev.eventTime())
		}
		return c.Step(t0.Add(2 * time.Second))
	}

	a, b := run(), run()
	if a != b {
		t.Errorf("replaying the same event stream diverged: %+v vs %+v", a, b)
	}
}
