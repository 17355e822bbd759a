package handlers

import (
	"fmt"

	"streetfire-server/pkg/api"
)

// TypedHandlerFunc - это "чистый" хендлер, который работает с готовой структурой T
type TypedHandlerFunc[T api.Command] func(ctx Context, cmd T) (Result, error)

// EmptyHandlerFunc - хендлер, которому НЕ нужны данные (REFRESH, KILL_GAME)
type EmptyHandlerFunc func(ctx Context) (Result, error)

// WithPayload берет "чистый" хендлер и превращает его в стандартный HandlerFunc.
// Она берет на себя приведение типа и Validate.
func WithPayload[T api.Command](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx Context, cmd api.Command) (Result, error) {
		// 1. Приведение к конкретной команде
		payload, ok := cmd.(T)
		if !ok {
			var want T
			return Result{}, fmt.Errorf("handler for %s got %s", want.Kind(), cmd.Kind())
		}

		// 2. Автоматическая валидация
		// Декодер уже проверил кадр, но команды могут прийти и не из сети.
		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return Result{}, fmt.Errorf("validation failed: %w", err)
			}
		}

		// 3. Вызов чистой логики
		return handler(ctx, payload)
	}
}

// WithEmptyPayload - обертка для команд без данных
func WithEmptyPayload(handler EmptyHandlerFunc) HandlerFunc {
	return func(ctx Context, _ api.Command) (Result, error) {
		return handler(ctx)
	}
}
