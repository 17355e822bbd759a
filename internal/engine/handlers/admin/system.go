package admin

import (
	"streetfire-server/internal/engine/handlers"
)

// HandleQuerySystemInfo - состояние устройств арены.
func HandleQuerySystemInfo(ctx handlers.Context) (handlers.Result, error) {
	var res handlers.Result
	res.Emit(ctx.Match.SystemInfo())
	return res, nil
}
