package sim

import (
	"context"

	"github.com/annel0/codecity/internal/camera"
	"github.com/annel0/codecity/internal/eventbus"
)

// GrappleAtCenter пикает из центра экрана и запускает грэппл к точке
// попадания. Попадание в маркер трактуется как попадание в строение.
// nil при промахе; грэппл тогда не запускается.
func (e *Engine) GrappleAtCenter(ctx context.Context) *PickResult {
	snap := e.snap.Load()

	e.mu.Lock()
	ray := e.cam.CenterRay()
	yaw := e.cam.Yaw
	e.mu.Unlock()

	res := e.resolvePick(ctx, snap, ray, yaw)
	if res == nil {
		return nil
	}

	point := ray.Origin.Add(ray.Dir.Mul(res.Distance))
	e.mu.Lock()
	e.cam.BeginGrapple(point, res.BlockID, -1)
	e.mu.Unlock()
	return res
}

// Board садит камеру в воздушный подвижный объект
func (e *Engine) Board(ctx context.Context, moverIndex int) bool {
	e.mu.Lock()
	ok := e.cam.BoardAircraft(moverIndex, e)
	e.mu.Unlock()

	if ok {
		_ = eventbus.Emit(ctx, "sim", eventbus.TypeMoverBoarded, 3, eventbus.MoverBoardedEvent{
			MoverIndex: moverIndex,
		})
	}
	return ok
}

// ToggleMode переключает режим камеры и публикует событие
func (e *Engine) ToggleMode(ctx context.Context) {
	var payload eventbus.CameraModeEvent

	e.mu.Lock()
	e.cam.ToggleFirstPerson()
	payload.Piloting = e.cam.Piloting
	payload.Flying = e.cam.Flying
	if e.cam.Mode == camera.ModeFirstPerson {
		payload.Mode = "first_person"
	} else {
		payload.Mode = "orbit"
	}
	e.mu.Unlock()

	_ = eventbus.Emit(ctx, "sim", eventbus.TypeCameraMode, 3, payload)
}
