package eventbus

import "context"

var globalBus EventBus

// Init устанавливает глобальную шину
func Init(bus EventBus) { globalBus = bus }

// Publish отправляет событие в глобальную шину, если она инициализирована
func Publish(ctx context.Context, ev *Envelope) error {
	if globalBus == nil {
		return nil
	}
	return globalBus.Publish(ctx, ev)
}

// Emit собирает конверт и публикует его в глобальную шину
func Emit(ctx context.Context, source, eventType string, priority int, payload any) error {
	if globalBus == nil {
		return nil
	}
	ev, err := NewEnvelope(source, eventType, priority, payload)
	if err != nil {
		return err
	}
	return globalBus.Publish(ctx, ev)
}
