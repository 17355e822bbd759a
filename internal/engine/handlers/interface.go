package handlers

import (
	"streetfire-server/internal/domain"
	"streetfire-server/pkg/api"
)

// Context передает хендлеру состояние матча.
// Мы передаем ссылку, чтобы хендлер мог менять состояние (мутировать данные).
type Context struct {
	Match *domain.Match
}

// Result - возвращает результат выполнения команды.
// Хендлер НЕ рассылает события сам, он возвращает их движку.
type Result struct {
	Events []api.Event
	// Stop - движок должен завершить работу (KillGame).
	Stop bool
}

// Emit добавляет события в результат.
func (r *Result) Emit(events ...api.Event) {
	r.Events = append(r.Events, events...)
}

// HandlerFunc - это контракт для любой команды (NEXT_STATE, ACTIVATE_EMITTER, etc).
type HandlerFunc func(ctx Context, cmd api.Command) (Result, error)

// EmptyResult - вспомогательная функция для пустого успешного ответа
func EmptyResult() Result {
	return Result{}
}
