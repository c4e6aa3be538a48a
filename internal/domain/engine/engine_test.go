package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/detection"
	"github.com/17Abhi005/proctorai/internal/domain/cooldown"
	"github.com/17Abhi005/proctorai/internal/domain/engine"
	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

// scriptedDetector returns whatever the test last loaded into it.
type scriptedDetector struct {
	mu       sync.Mutex
	faces    detection.FaceResult
	facesErr error
	objects  []detection.ObjectDetection
}

func (d *scriptedDetector) set(faces detection.FaceResult, objects ...detection.ObjectDetection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces = faces
	d.facesErr = nil
	d.objects = objects
}

func (d *scriptedDetector) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facesErr = err
}

func (d *scriptedDetector) DetectFaces(_ context.Context, _ *model.Frame) (detection.FaceResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faces, d.facesErr
}

func (d *scriptedDetector) DetectObjects(_ context.Context, _ *model.Frame) ([]detection.ObjectDetection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.objects, nil
}

// blockingDetector parks its first DetectFaces call until released.
type blockingDetector struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
	faces   detection.FaceResult
}

func (d *blockingDetector) DetectFaces(_ context.Context, _ *model.Frame) (detection.FaceResult, error) {
	d.once.Do(func() {
		close(d.entered)
		<-d.release
	})
	return d.faces, nil
}

func (d *blockingDetector) DetectObjects(_ context.Context, _ *model.Frame) ([]detection.ObjectDetection, error) {
	return nil, nil
}

// captureRecorder collects appended violations and frame statuses.
type captureRecorder struct {
	mu         sync.Mutex
	recording  bool
	violations []model.ViolationEvent
	frames     int
	clears     int
}

func (r *captureRecorder) Append(_ context.Context, ev model.ViolationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, ev)
}

func (r *captureRecorder) RecordFrame(_ context.Context, _ bool, _ []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
}

func (r *captureRecorder) ClearViolation(_ context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *captureRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *captureRecorder) setRecording(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = on
}

func (r *captureRecorder) clearCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

func (r *captureRecorder) snapshot() []model.ViolationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ViolationEvent, len(r.violations))
	copy(out, r.violations)
	return out
}

func (r *captureRecorder) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func testFrame() *model.Frame {
	return &model.Frame{
		Width:      100,
		Height:     100,
		Pixels:     make([]byte, 100*100*4),
		CapturedAt: time.Now(),
	}
}

func oneFace() detection.FaceResult {
	// Centered face: no gaze offset.
	return detection.FaceResult{
		HasFace: true,
		Count:   1,
		Faces:   []detection.FaceBox{{X: 40, Y: 40, Width: 20, Height: 20, Confidence: 0.95}},
	}
}

func aversedFace() detection.FaceResult {
	// Face center at x=80 in a 100px frame: 0.3 offset, well past threshold.
	return detection.FaceResult{
		HasFace: true,
		Count:   1,
		Faces:   []detection.FaceBox{{X: 70, Y: 40, Width: 20, Height: 20, Confidence: 0.95}},
	}
}

func noFace() detection.FaceResult {
	return detection.FaceResult{}
}

func TestEngineConstruction(t *testing.T) {
	Convey("Given engine construction", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}

		Convey("When the detector is missing", func() {
			_, err := engine.New(nil, rec)

			Convey("Then construction fails with the sentinel", func() {
				So(err, ShouldEqual, engine.ErrNilDetector)
			})
		})

		Convey("When the recorder is missing", func() {
			_, err := engine.New(det, nil)

			Convey("Then construction fails with the sentinel", func() {
				So(err, ShouldEqual, engine.ErrNilRecorder)
			})
		})

		Convey("When both are supplied", func() {
			e, err := engine.New(det, rec)

			Convey("Then the engine is ready", func() {
				So(err, ShouldBeNil)
				So(e, ShouldNotBeNil)
			})
		})
	})
}

func TestEngineFaceAbsence(t *testing.T) {
	Convey("Given an engine with short absence timings", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec,
			engine.WithFaceAbsenceDelay(40*time.Millisecond),
			engine.WithAbsenceEscalation(5*time.Second),
		)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		Convey("When the face goes missing and stays missing", func() {
			det.set(noFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			So(rec.snapshot(), ShouldBeEmpty)
			So(e.PendingTimers(), ShouldBeGreaterThan, 0)
			time.Sleep(120 * time.Millisecond)

			Convey("Then exactly one face-not-visible violation fires", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 1)
				So(got[0].Type, ShouldEqual, model.FaceNotVisible)
				So(got[0].Severity, ShouldEqual, model.SeverityHigh)
				So(got[0].Duration, ShouldEqual, 40*time.Millisecond)
				So(got[0].ID, ShouldNotBeEmpty)
			})

			Convey("And further absent frames within the cooldown add nothing", func() {
				So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
				time.Sleep(120 * time.Millisecond)
				So(len(rec.snapshot()), ShouldEqual, 1)
			})
		})

		Convey("When the face returns before the delay elapses", func() {
			det.set(noFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			det.set(oneFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(120 * time.Millisecond)

			Convey("Then no violation fires", func() {
				So(rec.snapshot(), ShouldBeEmpty)
				So(e.PendingTimers(), ShouldEqual, 0)
			})
		})

		Convey("When absent frames repeat while the timer is pending", func() {
			det.set(noFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(20 * time.Millisecond)
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(60 * time.Millisecond)

			Convey("Then the original deadline holds and one violation fires", func() {
				So(len(rec.snapshot()), ShouldEqual, 1)
			})
		})
	})
}

func TestEngineCandidateAbsent(t *testing.T) {
	Convey("Given an engine with a short absence escalation", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec,
			engine.WithFaceAbsenceDelay(30*time.Millisecond),
			engine.WithAbsenceEscalation(90*time.Millisecond),
		)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		Convey("When the candidate never comes back", func() {
			det.set(noFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(180 * time.Millisecond)

			Convey("Then absence escalates to a critical candidate-absent violation", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 2)
				So(got[0].Type, ShouldEqual, model.FaceNotVisible)
				So(got[1].Type, ShouldEqual, model.CandidateAbsent)
				So(got[1].Severity, ShouldEqual, model.SeverityCritical)
			})
		})

		Convey("When the candidate returns after the first violation", func() {
			det.set(noFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(50 * time.Millisecond)
			det.set(oneFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(120 * time.Millisecond)

			Convey("Then the escalation is canceled", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 1)
				So(got[0].Type, ShouldEqual, model.FaceNotVisible)
			})
		})
	})
}

func TestEngineMultipleFaces(t *testing.T) {
	Convey("Given an engine with a short multiple-faces cooldown", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec,
			engine.WithCooldown(model.MultipleFaces, 60*time.Millisecond),
		)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		Convey("When two faces appear in consecutive frames", func() {
			crowd := detection.FaceResult{
				HasFace:       true,
				Count:         2,
				MultipleFaces: true,
				Faces: []detection.FaceBox{
					{X: 40, Y: 40, Width: 20, Height: 20, Confidence: 0.9},
					{X: 10, Y: 40, Width: 20, Height: 20, Confidence: 0.9},
				},
			}
			det.set(crowd)
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then the violation is immediate and the repeat is suppressed", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 1)
				So(got[0].Type, ShouldEqual, model.MultipleFaces)
				So(got[0].Severity, ShouldEqual, model.SeverityCritical)
			})

			Convey("And a frame after the cooldown emits again", func() {
				time.Sleep(80 * time.Millisecond)
				So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
				So(len(rec.snapshot()), ShouldEqual, 2)
			})
		})
	})
}

func TestEngineLookingAway(t *testing.T) {
	Convey("Given an engine with a short looking-away delay", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec,
			engine.WithLookingAwayDelay(40*time.Millisecond),
		)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		Convey("When the gaze stays averted past the delay", func() {
			det.set(aversedFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(100 * time.Millisecond)

			Convey("Then a medium looking-away violation fires once", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 1)
				So(got[0].Type, ShouldEqual, model.LookingAway)
				So(got[0].Severity, ShouldEqual, model.SeverityMedium)
			})
		})

		Convey("When the gaze returns to center before the delay", func() {
			det.set(aversedFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			det.set(oneFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(100 * time.Millisecond)

			Convey("Then no violation fires", func() {
				So(rec.snapshot(), ShouldBeEmpty)
			})
		})

		Convey("When the face disappears while the gaze timer is armed", func() {
			det.set(aversedFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			det.set(noFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			time.Sleep(100 * time.Millisecond)

			Convey("Then the gaze timer is canceled", func() {
				for _, ev := range rec.snapshot() {
					So(ev.Type, ShouldNotEqual, model.LookingAway)
				}
			})
		})
	})
}

func TestEngineObjects(t *testing.T) {
	Convey("Given an engine observing suspicious objects", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		Convey("When a phone shows up in consecutive frames", func() {
			det.set(oneFace(), detection.ObjectDetection{Label: "cell phone", Confidence: 0.9})
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then exactly one critical phone violation is emitted", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 1)
				So(got[0].Type, ShouldEqual, model.PhoneDetected)
				So(got[0].Severity, ShouldEqual, model.SeverityCritical)
			})
		})

		Convey("When a second phone label arrives inside the type cooldown", func() {
			det.set(oneFace(), detection.ObjectDetection{Label: "cell phone", Confidence: 0.9})
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			det.set(oneFace(), detection.ObjectDetection{Label: "mobile phone", Confidence: 0.9})
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then the type gate suppresses the second emission", func() {
				So(len(rec.snapshot()), ShouldEqual, 1)
			})
		})

		Convey("When different object categories appear together", func() {
			det.set(oneFace(),
				detection.ObjectDetection{Label: "book", Confidence: 0.8},
				detection.ObjectDetection{Label: "laptop", Confidence: 0.7},
			)
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then each category yields its own violation", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 2)
				types := map[model.ViolationType]bool{}
				for _, ev := range got {
					types[ev.Type] = true
					So(ev.Severity, ShouldEqual, model.SeverityHigh)
				}
				So(types[model.BookDetected], ShouldBeTrue)
				So(types[model.DeviceDetected], ShouldBeTrue)
			})
		})

		Convey("When the phone reappears after both windows expire", func() {
			clock := struct {
				mu  sync.Mutex
				now time.Time
			}{now: time.Unix(1700000000, 0)}
			nowFn := func() time.Time {
				clock.mu.Lock()
				defer clock.mu.Unlock()
				return clock.now
			}
			advance := func(d time.Duration) {
				clock.mu.Lock()
				clock.now = clock.now.Add(d)
				clock.mu.Unlock()
			}

			e2, err := engine.New(det, rec,
				engine.WithNowFunc(nowFn),
				engine.WithTypeLedger(cooldown.NewInMemoryLedger(cooldown.WithNowFunc(nowFn))),
				engine.WithObjectLedger(cooldown.NewInMemoryLedger(cooldown.WithNowFunc(nowFn))),
			)
			So(err, ShouldBeNil)
			defer e2.Close()

			det.set(oneFace(), detection.ObjectDetection{Label: "cell phone", Confidence: 0.9})
			So(e2.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			advance(31 * time.Second)
			So(e2.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then a second phone violation is emitted", func() {
				got := rec.snapshot()
				So(len(got), ShouldEqual, 2)
				So(got[0].Type, ShouldEqual, model.PhoneDetected)
				So(got[1].Type, ShouldEqual, model.PhoneDetected)
			})
		})

		Convey("When an unclassified label arrives", func() {
			det.set(oneFace(), detection.ObjectDetection{Label: "chair", Confidence: 0.9})
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then nothing is emitted", func() {
				So(rec.snapshot(), ShouldBeEmpty)
			})
		})
	})
}

func TestEngineFrameHandling(t *testing.T) {
	Convey("Given an engine and its frame gate", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		Convey("When the session is not recording", func() {
			rec.setRecording(false)
			det.set(noFace())

			Convey("Then frames are ignored", func() {
				So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
				So(rec.frameCount(), ShouldEqual, 0)
			})
		})

		Convey("When the frame is not ready", func() {
			err := e.ProcessFrame(ctx, &model.Frame{Width: 10, Height: 10})

			Convey("Then it is rejected with the sentinel", func() {
				So(err, ShouldEqual, engine.ErrFrameNotReady)
				So(rec.frameCount(), ShouldEqual, 0)
			})
		})

		Convey("When face detection fails outright", func() {
			det.fail(errors.New("camera unplugged"))
			err := e.ProcessFrame(ctx, testFrame())

			Convey("Then the frame is skipped and the status is untouched", func() {
				So(err, ShouldNotBeNil)
				So(rec.frameCount(), ShouldEqual, 0)
				So(rec.snapshot(), ShouldBeEmpty)
			})
		})
	})
}

func TestEngineStop(t *testing.T) {
	Convey("Given a running engine", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec,
			engine.WithFaceAbsenceDelay(40*time.Millisecond),
			engine.WithLookingAwayDelay(40*time.Millisecond),
		)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		Convey("When stopped while an absence timer is pending", func() {
			det.set(noFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			So(e.PendingTimers(), ShouldBeGreaterThan, 0)
			e.Stop(ctx)
			time.Sleep(100 * time.Millisecond)

			Convey("Then the timer never fires", func() {
				So(e.PendingTimers(), ShouldEqual, 0)
				So(rec.snapshot(), ShouldBeEmpty)
			})
		})

		Convey("When stopped while a looking-away timer is pending", func() {
			det.set(aversedFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			So(e.PendingTimers(), ShouldBeGreaterThan, 0)
			e.Stop(ctx)
			time.Sleep(100 * time.Millisecond)

			Convey("Then no looking-away violation ever appears", func() {
				So(e.PendingTimers(), ShouldEqual, 0)
				So(rec.snapshot(), ShouldBeEmpty)
			})
		})

		Convey("When a frame is still in detection as the session stops", func() {
			det := &blockingDetector{
				entered: make(chan struct{}),
				release: make(chan struct{}),
				faces:   noFace(),
			}
			rec := &captureRecorder{recording: true}
			e2, err := engine.New(det, rec,
				engine.WithFaceAbsenceDelay(30*time.Millisecond),
				engine.WithAbsenceEscalation(60*time.Millisecond),
			)
			So(err, ShouldBeNil)
			defer e2.Close()

			done := make(chan error, 1)
			go func() { done <- e2.ProcessFrame(ctx, testFrame()) }()
			<-det.entered

			rec.setRecording(false)
			e2.Stop(ctx)
			close(det.release)
			So(<-done, ShouldBeNil)
			time.Sleep(100 * time.Millisecond)

			Convey("Then the late frame arms nothing", func() {
				So(e2.PendingTimers(), ShouldEqual, 0)
				So(rec.snapshot(), ShouldBeEmpty)
				So(rec.frameCount(), ShouldEqual, 0)
			})
		})

		Convey("When stopped between two identical violations", func() {
			crowd := detection.FaceResult{HasFace: true, Count: 2, MultipleFaces: true,
				Faces: []detection.FaceBox{{X: 40, Y: 40, Width: 20, Height: 20, Confidence: 0.9}}}
			det.set(crowd)
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
			e.Stop(ctx)
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then the cooldown does not survive the stop", func() {
				So(len(rec.snapshot()), ShouldEqual, 2)
			})
		})
	})
}

func TestEngineClearsLiveViolation(t *testing.T) {
	Convey("Given an engine that confirmed a violation", t, func() {
		det := &scriptedDetector{}
		rec := &captureRecorder{recording: true}
		e, err := engine.New(det, rec)
		So(err, ShouldBeNil)
		defer e.Close()
		ctx := context.Background()

		crowd := detection.FaceResult{HasFace: true, Count: 2, MultipleFaces: true,
			Faces: []detection.FaceBox{{X: 40, Y: 40, Width: 20, Height: 20, Confidence: 0.9}}}
		det.set(crowd)
		So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)
		So(len(rec.snapshot()), ShouldEqual, 1)
		So(rec.clearCount(), ShouldEqual, 0)

		Convey("When a clean frame follows", func() {
			det.set(oneFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then the live marker is cleared", func() {
				So(rec.clearCount(), ShouldEqual, 1)
			})
		})

		Convey("When the gaze is still averted", func() {
			det.set(aversedFace())
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then the live marker stays", func() {
				So(rec.clearCount(), ShouldEqual, 0)
			})
		})

		Convey("When a suspicious object lingers", func() {
			det.set(oneFace(), detection.ObjectDetection{Label: "cell phone", Confidence: 0.9})
			So(e.ProcessFrame(ctx, testFrame()), ShouldBeNil)

			Convey("Then the live marker stays", func() {
				So(rec.clearCount(), ShouldEqual, 0)
			})
		})
	})
}
